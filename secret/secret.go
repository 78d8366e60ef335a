// Package secret implements the secret-resolution protocol of spec §4.F:
// an operator submits a Request and yields with SetWaiting(true); the
// runtime resolves asynchronously via a plug-in Resolver and writes the
// result back through a channel.
//
// Grounded on original_source/libtenzir/src/secret_resolution_utilities.cpp
// and libtenzir/include/tenzir/secret_resolution_utilities.hpp, which group
// the "resolve or fail the operator" helper the spec describes.
package secret

import (
	"context"

	uuid "github.com/satori/go.uuid"
)

// Request names the secret an operator needs (an API token, a URL
// credential, ...).
type Request struct {
	ID   uuid.UUID
	Name string
	// Hint is an optional, human-readable description surfaced to the
	// resolver (e.g. "API token for https://example.com").
	Hint string
}

// NewRequest creates a Request with a fresh ID.
func NewRequest(name, hint string) Request {
	return Request{ID: uuid.NewV4(), Name: name, Hint: hint}
}

// Result is what the Resolver replies with: either the plain secret value,
// or an error naming why resolution failed (surfaced as a diag.Kind
// SecretResolution error, which fails the requesting operator per spec §7).
type Result struct {
	Value string
	Err   error
}

// Resolver is the external collaborator that answers Requests. The
// built-in runtime ships no concrete Resolver (credential stores are
// deployment-specific); tests use ResolverFunc below.
type Resolver interface {
	Resolve(ctx context.Context, req Request) Result
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ctx context.Context, req Request) Result

func (f ResolverFunc) Resolve(ctx context.Context, req Request) Result { return f(ctx, req) }

// Static returns a Resolver that answers every request with the same
// fixed lookup table, failing requests for unknown names. Useful for
// tests and for simple deployments that configure secrets directly.
func Static(values map[string]string) Resolver {
	return ResolverFunc(func(_ context.Context, req Request) Result {
		if v, ok := values[req.Name]; ok {
			return Result{Value: v}
		}
		return Result{Err: &NotFoundError{Name: req.Name}}
	})
}

// NotFoundError is returned by Static (and may be returned by any
// Resolver) when no value is configured for the requested name.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return "secret not found: " + e.Name }
