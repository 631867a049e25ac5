package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/middleware"
	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

func getUserID(ctx *gin.Context) (string, bool) {
	return middleware.UserID(ctx)
}

// requireUser writes 401 and returns false when no user is attached.
func requireUser(ctx *gin.Context) (string, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}
	return userID, ok
}

// respondError maps service errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	var rule *services.RuleError
	switch {
	case errors.Is(err, services.ErrDuplicateCheckIn):
		utils.FailWith(ctx, http.StatusOK, services.ErrDuplicateCheckIn.Code, services.ErrDuplicateCheckIn.Message, gin.H{"isDuplicate": true})
	case errors.As(err, &rule):
		utils.Fail(ctx, http.StatusBadRequest, rule.Code, rule.Message)
	case errors.Is(err, services.ErrNotFound):
		utils.Fail(ctx, http.StatusNotFound, "not_found", "not found")
	default:
		_ = ctx.Error(err)
		utils.Fail(ctx, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func badRequest(ctx *gin.Context, msg string) {
	utils.Fail(ctx, http.StatusBadRequest, "invalid_request", msg)
}
