package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user's UUID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextClaimsKey stores the verified token claims.
	ContextClaimsKey = "claims"
	// ContextTokenKey stores the raw bearer token.
	ContextTokenKey = "token"
)

// AuthRequired verifies the identity provider's bearer token and stores the
// caller's user ID. Nothing downstream runs for unauthenticated requests.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(ctx, "authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(ctx, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(ctx, "empty bearer token")
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			unauthorized(ctx, "invalid token")
			return
		}
		if utils.IsTokenRevoked(ctx.Request.Context(), claims.ID, tokenString) {
			unauthorized(ctx, "token revoked")
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID())
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// UserID returns the authenticated caller.
func UserID(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func unauthorized(ctx *gin.Context, msg string) {
	utils.Fail(ctx, http.StatusUnauthorized, "unauthorized", msg)
	ctx.Abort()
}
