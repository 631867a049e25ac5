package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/config"
	"github.com/cppla/officing/utils"
)

// AdminKeyHeader carries the catalog admin key.
const AdminKeyHeader = "X-Admin-Key"

// AdminRequired accepts requests whose X-Admin-Key matches the configured
// bcrypt hash. Admin routes are closed when no hash is configured.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		hash := config.Get().AdminKeyHash
		if hash == "" {
			utils.Fail(ctx, http.StatusForbidden, "admin_disabled", "admin access is not configured")
			ctx.Abort()
			return
		}
		if !utils.CheckPassword(hash, ctx.GetHeader(AdminKeyHeader)) {
			utils.Fail(ctx, http.StatusUnauthorized, "unauthorized", "invalid admin key")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
