// Package scope binds the current principal to record-store queries so that
// every read and write is restricted to rows the principal owns. The
// constraint is built into query construction rather than added per call
// site: criteria constructors refuse to produce an owner filter for an
// unbound principal, so an unscoped query cannot be built by accident.
package scope

import (
	"context"
	"errors"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ErrUnauthenticated is returned when a scoped query is built without a
// bound principal. It is terminal for the request; there is no fallback to
// unscoped data.
var ErrUnauthenticated = errors.New("unauthenticated_access")

// DefaultOwnerColumn is the conventional owner-identifier column used when a
// record type does not override it.
const DefaultOwnerColumn = "user_id"

// Principal is the authenticated identity making a request. The zero value
// is unbound and fails every scoped operation.
type Principal struct {
	ID string
}

// Valid reports whether the principal carries an identity.
func (p Principal) Valid() bool {
	return p.ID != ""
}

type principalCtxKey struct{}

// WithPrincipal binds the principal to the context for the lifetime of a
// request. The HTTP/CLI boundary calls this once after authentication.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// FromContext returns the principal bound to the context, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok && p.Valid()
}

// Ownership declares how a record type maps to its owner. Each record type
// registers one of these at construction time; there is no runtime probing
// for owner accessors.
type Ownership struct {
	// Column is the owner-identifier column. Empty means DefaultOwnerColumn.
	Column string
}

// OwnerColumn resolves the configured column name.
func (o Ownership) OwnerColumn() string {
	if o.Column == "" {
		return DefaultOwnerColumn
	}
	return o.Column
}

// SelectCriteria returns the criteria constraining a select query to rows
// owned by the principal, or ErrUnauthenticated when no principal is bound.
func (o Ownership) SelectCriteria(p Principal) (repository.SelectCriteria, error) {
	if !p.Valid() {
		return nil, ErrUnauthenticated
	}
	column := o.OwnerColumn()
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(column), p.ID)
	}, nil
}

// Owns reports whether the principal owns the record with the given owner
// identifier. Mutations use it to re-check ownership before touching rows
// that were handed back in from the boundary.
func (o Ownership) Owns(p Principal, ownerID string) bool {
	return p.Valid() && ownerID == p.ID
}
