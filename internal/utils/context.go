package utils

import (
	"context"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"
const ContextAPITokenKey contextKey = "apiToken"

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

func GetAPITokenFromContext(ctx context.Context) (string, bool) {
	token := ctx.Value(ContextAPITokenKey)
	tokenStr, ok := token.(string)
	return tokenStr, ok
}
