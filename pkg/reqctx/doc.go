// Package reqctx carries request-scoped data through context.Context.
//
// The HTTP middleware sets RequestMeta on every request and AuthClaims on
// authenticated ones. Handlers and services read them back through the
// typed getters; the context keys are unexported.
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: id})
//	ctx = reqctx.WithClaims(ctx, claims)
//
//	sid, ok := reqctx.SessionIDFromContext(ctx)
package reqctx
