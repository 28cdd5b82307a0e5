// Package tenant threads the tenant identity of the calling request through
// context.Context. There is no ambient or global tenant state: every
// operation reads the tenant from the context it was called with, and
// background work re-attaches the tenant to its own context.
package tenant

import (
	"context"

	"github.com/sharedtable/mtdynamo/mterror"
)

type contextKey struct{}

// NewContext returns a child context carrying the tenant identity.
func NewContext(parent context.Context, tenant string) context.Context {
	return context.WithValue(parent, contextKey{}, tenant)
}

// FromContext returns the tenant carried by ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(contextKey{}).(string)
	if !ok || t == "" {
		return "", false
	}
	return t, true
}

// Required returns the tenant carried by ctx, or an InvalidArgument error if
// the context carries none.
func Required(ctx context.Context) (string, error) {
	t, ok := FromContext(ctx)
	if !ok {
		return "", mterror.Newf(mterror.KindInvalidArgument, "no tenant in request context")
	}
	return t, nil
}
