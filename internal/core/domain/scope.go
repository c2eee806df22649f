package domain

import "context"

type pathPrefixKey struct{}

// WithPathPrefix scopes retrieval on this context to documents under prefix.
// The scope rides the context so it reaches every retrieval a pipeline
// invocation performs, including the ones reflection triggers later.
func WithPathPrefix(ctx context.Context, prefix string) context.Context {
	if prefix == "" {
		return ctx
	}
	return context.WithValue(ctx, pathPrefixKey{}, prefix)
}

// PathPrefixFrom returns the retrieval scope set by WithPathPrefix, or an
// empty string when the context carries none.
func PathPrefixFrom(ctx context.Context) string {
	prefix, _ := ctx.Value(pathPrefixKey{}).(string)
	return prefix
}
