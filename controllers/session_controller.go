package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/middleware"
	"github.com/cppla/officing/utils"
)

// SessionController handles the caller's bearer token.
type SessionController struct{}

func NewSessionController() *SessionController { return &SessionController{} }

// Logout revokes the presented token for the rest of its lifetime.
func (s *SessionController) Logout(ctx *gin.Context) {
	raw, _ := ctx.Get(middleware.ContextClaimsKey)
	claims, ok := raw.(*utils.Claims)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	token := ctx.GetString(middleware.ContextTokenKey)

	expires := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	utils.RevokeToken(ctx.Request.Context(), claims.ID, token, expires)
	utils.OK(ctx, gin.H{"message": "logged out"})
}
