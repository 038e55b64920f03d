package host

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
)

// ErrUnauthorized is returned (wrapped) by every Authorizer in this package
// when the current call may not act as the requested identity.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer confirms that the current call is allowed to act as an
// identity. A non-nil error aborts the call.
type Authorizer interface {
	RequireAuth(ctx context.Context, id remit.Address) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, id remit.Address) error

// RequireAuth calls f(ctx, id).
func (f AuthorizerFunc) RequireAuth(ctx context.Context, id remit.Address) error {
	return f(ctx, id)
}

// AllowAll authorizes every identity. Only suitable for embedding the
// ledger behind a front end that has already authenticated the caller.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, remit.Address) error { return nil })

type identitiesKey struct{}

// WithIdentities returns a context carrying the identities the caller has
// proven control of. Repeated calls accumulate.
func WithIdentities(ctx context.Context, ids ...remit.Address) context.Context {
	existing := Identities(ctx)
	merged := make([]remit.Address, 0, len(existing)+len(ids))
	merged = append(merged, existing...)
	merged = append(merged, ids...)
	return context.WithValue(ctx, identitiesKey{}, merged)
}

// Identities returns the identities attached to ctx, if any.
func Identities(ctx context.Context) []remit.Address {
	ids, _ := ctx.Value(identitiesKey{}).([]remit.Address)
	return ids
}

// IdentityAuthorizer authorizes an identity when it is attached to the call
// context with WithIdentities.
type IdentityAuthorizer struct{}

// RequireAuth implements Authorizer.
func (IdentityAuthorizer) RequireAuth(ctx context.Context, id remit.Address) error {
	if slices.Contains(Identities(ctx), id) {
		return nil
	}
	return fmt.Errorf("%w: caller may not act as %s", ErrUnauthorized, id)
}
