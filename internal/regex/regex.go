// Package regex exposes a pluggable registry of regular-expression
// engines, so the query layer can match patterns against string values
// without committing to one regex implementation. A "go" engine backed
// by the standard library's regexp package is registered by default.
package regex

import (
	"regexp"
	"sync"

	"gopkg.in/src-d/go-errors.v1"
)

// ErrRegexNameEmpty is returned by Register when given an empty engine
// name.
var ErrRegexNameEmpty = errors.NewKind("regex: engine name must not be empty")

// Matcher matches a string against a compiled pattern.
type Matcher interface {
	Match(s string) bool
}

// Disposer releases resources held by a Matcher. Engines that allocate
// no native resources may return a no-op Disposer.
type Disposer interface {
	Dispose()
}

// Constructor compiles pattern and returns a Matcher/Disposer pair for
// the given engine.
type Constructor func(pattern string) (Matcher, Disposer, error)

var (
	mu      sync.RWMutex
	engines = map[string]Constructor{}
	def     = "go"
)

func init() {
	Register("go", newGoMatcher)
}

// Register adds a named engine constructor to the registry.
func Register(name string, ctor Constructor) error {
	if name == "" {
		return ErrRegexNameEmpty.New()
	}
	mu.Lock()
	defer mu.Unlock()
	engines[name] = ctor
	return nil
}

// Engines lists every registered engine name.
func Engines() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	return names
}

// Default returns the name of the current default engine: "go" unless
// SetDefault has set another. New always takes an explicit engine name.
func Default() string {
	mu.RLock()
	defer mu.RUnlock()
	return def
}

// SetDefault changes the default engine. Passing "" resets it to "go".
func SetDefault(name string) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		def = "go"
		return
	}
	def = name
}

// New compiles pattern with the named engine's constructor.
func New(name, pattern string) (Matcher, Disposer, error) {
	mu.RLock()
	ctor, ok := engines[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, errors.NewKind("regex: unknown engine %q").New(name)
	}
	return ctor(pattern)
}

type goMatcher struct {
	re *regexp.Regexp
}

func (m *goMatcher) Match(s string) bool { return m.re.MatchString(s) }

type goDisposer struct{}

func (goDisposer) Dispose() {}

func newGoMatcher(pattern string) (Matcher, Disposer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, nil, err
	}
	return &goMatcher{re: re}, goDisposer{}, nil
}
