package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/utils"
)

// InFlightLock rejects a second concurrent request of the same operation by
// the same user with 409 request_in_flight. Must run after AuthRequired.
func InFlightLock(op string, ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		uid, ok := UserID(ctx)
		if !ok {
			ctx.Next()
			return
		}
		release, acquired := utils.AcquireUserLock(ctx.Request.Context(), uid+":"+op, ttl)
		if !acquired {
			utils.Fail(ctx, http.StatusConflict, "request_in_flight", "Request already in progress")
			ctx.Abort()
			return
		}
		defer release()
		ctx.Next()
	}
}
