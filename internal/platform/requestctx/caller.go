package requestctx

import "context"

// callerContextKey is the context key for the authenticated caller identity.
type callerContextKey struct{}

// WithCaller stores a caller identity in context.
func WithCaller(ctx context.Context, identity string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, identity)
}

// CallerFromContext returns the caller identity stored in context.
func CallerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(callerContextKey{}).(string)
	return value
}
