package guard

import (
	"context"

	"github.com/dmitrijs2005/authservice/internal/server/auth"
)

type ctxKey struct{}

// WithResult attaches an authorization result to ctx for downstream handlers.
func WithResult(ctx context.Context, r *Result) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the result stored by WithResult.
func FromContext(ctx context.Context) (*Result, bool) {
	r, ok := ctx.Value(ctxKey{}).(*Result)
	return r, ok && r != nil
}

// PayloadFromContext is a shortcut for the authenticated identity.
func PayloadFromContext(ctx context.Context) (auth.Payload, bool) {
	r, ok := FromContext(ctx)
	if !ok {
		return auth.Payload{}, false
	}
	return r.Payload, true
}
