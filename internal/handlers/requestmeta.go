package handlers

import "context"

type requestMetaKey struct{}

// RequestMeta holds per-request metadata threaded in by the middleware.
// The core service never reads ambient request state; the boundary extracts
// what it needs and passes it explicitly.
type RequestMeta struct {
	ClientIP   string
	OwnerToken string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}
