package acl

import (
	"context"
	"errors"
)

// ErrPermissionDenied is the default error returned by a gate when every
// requested permission is refused.
var ErrPermissionDenied = errors.New("acl: permission denied")

// PrivilegeResolver yields the effective privilege set of the current
// request, typically from the authenticated principal in the context.
type PrivilegeResolver func(ctx context.Context) ([]Privilege, error)

// Gatekeeper binds a privilege resolver and a denial error factory once at
// construction time; routes then derive per-resource gates from it.
type Gatekeeper struct {
	resolve PrivilegeResolver
	denied  func() error
}

// GateOption configures a Gatekeeper.
type GateOption func(*Gatekeeper)

// WithDeniedError overrides the error produced on denial.
func WithDeniedError(fn func() error) GateOption {
	return func(g *Gatekeeper) {
		if fn != nil {
			g.denied = fn
		}
	}
}

// NewGatekeeper constructs a Gatekeeper around a privilege resolver.
func NewGatekeeper(resolve PrivilegeResolver, opts ...GateOption) (*Gatekeeper, error) {
	if resolve == nil {
		return nil, errors.New("acl: privilege resolver is required")
	}
	g := &Gatekeeper{
		resolve: resolve,
		denied:  func() error { return ErrPermissionDenied },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// FixedResource adapts an already-fetched resource to a provider function.
func FixedResource[R Provider](resource R) func(context.Context) (R, error) {
	return func(context.Context) (R, error) { return resource, nil }
}

// Require returns a gate that fetches the resource, resolves the caller's
// privileges and grants access if any of the listed permissions resolves to
// allow. Errors from the resource provider (e.g. not-found) propagate before
// any permission check runs.
func Require[R Provider](g *Gatekeeper, permissions []Permission, provide func(context.Context) (R, error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		var zero R
		resource, err := provide(ctx)
		if err != nil {
			return zero, err
		}
		privileges, err := g.resolve(ctx)
		if err != nil {
			return zero, err
		}
		for _, perm := range permissions {
			if HasPermission(privileges, perm, resource) {
				return resource, nil
			}
		}
		return zero, g.denied()
	}
}
