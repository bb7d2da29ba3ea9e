package utils

import (
	"context"

	"github.com/FDXFinanzas1/inventario-ciego/appctx"
)

const (
	ContextKeyToken            = appctx.ContextKeyToken
	ContextKeyUsername         = appctx.ContextKeyUsername
	ContextKeyUserName         = appctx.ContextKeyUserName
	ContextKeyRole             = appctx.ContextKeyRole
	ContextKeyCorrelationId    = appctx.ContextKeyCorrelationId
	ContextKeyAdminKeyVerified = appctx.ContextKeyAdminKeyVerified
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRole)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetAdminKeyVerifiedFromContext(ctx context.Context) bool {
	v, _ := appctx.GetBool(ctx, ContextKeyAdminKeyVerified)
	return v
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyRole, role)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetAdminKeyVerifiedInContext(ctx context.Context) context.Context {
	return appctx.Set(ctx, ContextKeyAdminKeyVerified, true)
}
