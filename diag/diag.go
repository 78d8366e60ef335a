// Package diag implements the diagnostic model of spec §4.J: severities,
// primary/secondary spans, notes, and the domain error kinds of spec §7.
package diag

import "fmt"

// Severity is the level of a Diagnostic.
type Severity uint8

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Span is a primary or secondary source-text location, expressed as a byte
// offset range. The textual query-language parser (external collaborator,
// spec §1) is the usual producer of real spans; the core only carries them.
type Span struct {
	Begin, End int
}

// Label is a secondary span annotated with an explanatory label.
type Label struct {
	Span Span
	Text string
}

// NoteKind distinguishes free-form notes from the two conventional kinds
// the argument parser always attaches (spec §4.I "usage... docs URL").
type NoteKind uint8

const (
	FreeNote NoteKind = iota
	UsageNote
	DocsNote
)

// Note is one attached note.
type Note struct {
	Kind NoteKind
	Text string
}

// Diagnostic carries a severity, a message, a primary span, zero or more
// secondary spans with labels, and notes (spec §4.J).
type Diagnostic struct {
	Severity  Severity
	Message   string
	Primary   Span
	HasSpan   bool
	Secondary []Label
	Notes     []Note
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Builder constructs a Diagnostic fluently, the way operators are expected
// to report through ctrl.Diagnostics() (spec §4.F).
type Builder struct{ d Diagnostic }

func New(sev Severity, message string) *Builder {
	return &Builder{d: Diagnostic{Severity: sev, Message: message}}
}

func Notef(format string, args ...interface{}) *Builder {
	return New(Note, fmt.Sprintf(format, args...))
}

func Warningf(format string, args ...interface{}) *Builder {
	return New(Warning, fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) *Builder {
	return New(Error, fmt.Sprintf(format, args...))
}

func (b *Builder) Primary(s Span) *Builder {
	b.d.Primary = s
	b.d.HasSpan = true
	return b
}

func (b *Builder) Secondary(s Span, label string) *Builder {
	b.d.Secondary = append(b.d.Secondary, Label{Span: s, Text: label})
	return b
}

func (b *Builder) Note(text string) *Builder {
	b.d.Notes = append(b.d.Notes, Note{Kind: FreeNote, Text: text})
	return b
}

func (b *Builder) Usage(text string) *Builder {
	b.d.Notes = append(b.d.Notes, Note{Kind: UsageNote, Text: text})
	return b
}

func (b *Builder) Docs(url string) *Builder {
	b.d.Notes = append(b.d.Notes, Note{Kind: DocsNote, Text: url})
	return b
}

func (b *Builder) Done() Diagnostic { return b.d }

// Sink is what operators report diagnostics to (spec §4.F "ctrl.diagnostics()").
type Sink interface {
	Emit(Diagnostic)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Emit(d Diagnostic) { f(d) }

// Collector is a Sink that retains every diagnostic it receives, as used by
// enginetest and by the partition evaluator when composing sub-results.
type Collector struct {
	diags []Diagnostic
}

func (c *Collector) Emit(d Diagnostic) { c.diags = append(c.diags, d) }

func (c *Collector) Diagnostics() []Diagnostic { return append([]Diagnostic(nil), c.diags...) }

// HasError reports whether any collected diagnostic is Error severity; per
// spec §4.J an error diagnostic is fatal to the pipeline the moment the
// producing operator returns.
func (c *Collector) HasError() bool {
	for _, d := range c.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
