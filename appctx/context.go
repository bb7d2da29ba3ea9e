// Package appctx holds the request-scoped context keys shared by config, utils and the middlewares.
package appctx

import "context"

type ContextKey string

func (c ContextKey) String() string { return "inventario-ciego/" + string(c) }

const (
	ContextKeyToken            ContextKey = "Token"
	ContextKeyUsername         ContextKey = "Username"
	ContextKeyUserName         ContextKey = "UserName"
	ContextKeyRole             ContextKey = "Role"
	ContextKeyCorrelationId    ContextKey = "CorrelationId"
	ContextKeyAdminKeyVerified ContextKey = "AdminKeyVerified"
)

// Get returns the value stored under key when it has type T.
func Get[T any](ctx context.Context, key ContextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	return Get[string](ctx, key)
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	return Get[bool](ctx, key)
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
