// Package argparser implements the operator-literal argument parser of
// spec §4.I: a small, declarative parser that consumes an already
// shell-tokenized argument list (positional and `--name value`/`--name`
// flags, in any order after the positionals) and fills typed destinations
// via github.com/spf13/cast, the same coercion library the corpus uses
// wherever a stringly-typed value needs converting to a concrete Go type.
//
// Grounded on argument_parser.hpp/.cpp: a parser built once per operator
// with a fixed sequence of add() calls describing its grammar, then
// driven over the actual token stream by a single parse() call that
// reports the first mismatch.
package argparser

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/tenzir-community/tenzirgo/internal/similartext"
)

// Parser accumulates an operator's expected positional and named
// arguments, then parses one token stream against them.
type Parser struct {
	name string
	docs string

	positional []positionalArg
	named      []namedArg
	flags      []flagArg

	firstOptional int // index into positional; -1 if all are required
}

type positionalArg struct {
	meta     string
	required bool
	set      func(string) error
}

type namedArg struct {
	names []string
	meta  string
	set   func(string) error
}

type flagArg struct {
	names []string
	set   func()
}

// New constructs a Parser for an operator named name, with an optional
// docs URL surfaced in usage().
func New(name string, docs string) *Parser {
	return &Parser{name: name, docs: docs, firstOptional: -1}
}

// AddPositional registers a required positional argument; dest is set to
// the raw token at this position, unconverted.
func (p *Parser) AddPositional(meta string, dest *string) {
	p.positional = append(p.positional, positionalArg{meta: meta, required: true, set: func(s string) error {
		*dest = s
		return nil
	}})
}

// AddPositionalInt64 is AddPositional specialised to an int64 destination.
func (p *Parser) AddPositionalInt64(meta string, dest *int64) {
	p.positional = append(p.positional, positionalArg{meta: meta, required: true, set: func(s string) error {
		v, err := cast.ToInt64E(s)
		if err != nil {
			return errors.Wrapf(err, "%s: %q", meta, s)
		}
		*dest = v
		return nil
	}})
}

// AddOptionalPositional registers a positional argument that may be
// omitted, as long as no required positional follows it (argument_parser.hpp
// asserts exactly this ordering via first_optional_).
func (p *Parser) AddOptionalPositional(meta string, dest *string) {
	if p.firstOptional == -1 {
		p.firstOptional = len(p.positional)
	}
	p.positional = append(p.positional, positionalArg{meta: meta, required: false, set: func(s string) error {
		*dest = s
		return nil
	}})
}

// AddNamed registers a `--name <meta>` / `-x <meta>` option. names is a
// comma-separated alias list, e.g. "--within,-w".
func (p *Parser) AddNamed(names string, meta string, dest *string) {
	p.named = append(p.named, namedArg{names: splitNames(names), meta: meta, set: func(s string) error {
		*dest = s
		return nil
	}})
}

// AddNamedDuration registers a `--name <duration>` option, coerced with
// time.ParseDuration (the Go analogue of the corpus's duration parser).
func (p *Parser) AddNamedDuration(names string, meta string, dest *time.Duration) {
	p.named = append(p.named, namedArg{names: splitNames(names), meta: meta, set: func(s string) error {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrapf(err, "%s: %q", meta, s)
		}
		*dest = d
		return nil
	}})
}

// AddNamedUint64 registers a `--name <uint>` option.
func (p *Parser) AddNamedUint64(names string, meta string, dest *uint64) {
	p.named = append(p.named, namedArg{names: splitNames(names), meta: meta, set: func(s string) error {
		v, err := cast.ToUint64E(s)
		if err != nil {
			return errors.Wrapf(err, "%s: %q", meta, s)
		}
		*dest = v
		return nil
	}})
}

// AddFlag registers a bare boolean flag, e.g. "--real-time,-r".
func (p *Parser) AddFlag(names string, dest *bool) {
	p.flags = append(p.flags, flagArg{names: splitNames(names), set: func() { *dest = true }})
}

func splitNames(names string) []string {
	parts := strings.Split(names, ",")
	for i, n := range parts {
		parts[i] = strings.TrimSpace(n)
	}
	return parts
}

// Parse consumes tokens against the registered grammar. An `--name=value`
// token is split on the first `=`; otherwise a named option's value is the
// following token. Flags consume no following token. Positionals are
// filled in declaration order from whatever tokens remain once every
// option has claimed its own.
func (p *Parser) Parse(tokens []string) error {
	var positionals []string
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			positionals = append(positionals, tok)
			i++
			continue
		}
		name, inlineValue, hasInline := strings.Cut(tok, "=")
		if flag, ok := p.findFlag(name); ok {
			flag.set()
			i++
			continue
		}
		opt, ok := p.findNamed(name)
		if !ok {
			return errors.Errorf("%s: unknown option %q%s", p.name, name, similartext.Find(p.knownOptionNames(), name))
		}
		var value string
		if hasInline {
			value = inlineValue
			i++
		} else {
			if i+1 >= len(tokens) {
				return errors.Errorf("%s: option %q requires a value", p.name, name)
			}
			value = tokens[i+1]
			i += 2
		}
		if err := opt.set(value); err != nil {
			return err
		}
	}

	required := len(p.positional)
	if p.firstOptional >= 0 {
		required = p.firstOptional
	}
	if len(positionals) < required {
		return errors.Errorf("%s: expected at least %d positional argument(s), got %d", p.name, required, len(positionals))
	}
	if len(positionals) > len(p.positional) {
		return errors.Errorf("%s: expected at most %d positional argument(s), got %d", p.name, len(p.positional), len(positionals))
	}
	for idx, tok := range positionals {
		if err := p.positional[idx].set(tok); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) findNamed(name string) (namedArg, bool) {
	for _, n := range p.named {
		for _, alias := range n.names {
			if alias == name {
				return n, true
			}
		}
	}
	return namedArg{}, false
}

func (p *Parser) findFlag(name string) (flagArg, bool) {
	for _, f := range p.flags {
		for _, alias := range f.names {
			if alias == name {
				return f, true
			}
		}
	}
	return flagArg{}, false
}

// knownOptionNames lists every registered named-option and flag alias, for
// similartext's "did you mean" suggestion on an unrecognized option.
func (p *Parser) knownOptionNames() []string {
	var names []string
	for _, n := range p.named {
		names = append(names, n.names...)
	}
	for _, f := range p.flags {
		names = append(names, f.names...)
	}
	return names
}

// Usage renders a one-line usage synopsis in the style of argument_parser.hpp's
// usage(): the operator name, each positional in order (optional ones
// bracketed), then each named option and flag.
func (p *Parser) Usage() string {
	var b strings.Builder
	b.WriteString(p.name)
	for _, pos := range p.positional {
		b.WriteByte(' ')
		if !pos.required {
			b.WriteString("[" + pos.meta + "]")
		} else {
			b.WriteString("<" + pos.meta + ">")
		}
	}
	for _, n := range p.named {
		b.WriteString(" [" + strings.Join(n.names, "|") + " <" + n.meta + ">]")
	}
	for _, f := range p.flags {
		b.WriteString(" [" + strings.Join(f.names, "|") + "]")
	}
	return b.String()
}

// Docs returns the configured documentation URL, if any.
func (p *Parser) Docs() string { return p.docs }
