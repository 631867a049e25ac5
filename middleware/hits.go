package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/officing/utils"
)

// HitStore counts requests per route and day.
type HitStore interface {
	RecordHit(ctx context.Context, route string) error
}

// HitRecorder counts successful API requests by route template after the
// handler ran. Unmatched routes and the health check are ignored.
func HitRecorder(store HitStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" || route == "/health" {
			return
		}
		if status := c.Writer.Status(); status < http.StatusOK || status >= http.StatusBadRequest {
			return
		}
		// the request context may already be cancelled by a disconnected client
		if err := store.RecordHit(context.WithoutCancel(c.Request.Context()), c.Request.Method+" "+route); err != nil {
			utils.Logger.Debug("record hit failed", zap.String("route", route), zap.Error(err))
		}
	}
}
