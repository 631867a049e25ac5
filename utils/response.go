package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the envelope of every failed API call.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// OK writes {"success": true} merged with the fields of data.
func OK(ctx *gin.Context, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	ctx.JSON(http.StatusOK, body)
}

// Fail writes a failure envelope with the given status.
func Fail(ctx *gin.Context, status int, code, message string) {
	ctx.JSON(status, ErrorBody{Success: false, Error: message, Code: code})
}

// FailWith writes a failure envelope with extra top-level fields.
func FailWith(ctx *gin.Context, status int, code, message string, extra gin.H) {
	body := gin.H{"success": false, "error": message, "code": code}
	for k, v := range extra {
		body[k] = v
	}
	ctx.JSON(status, body)
}
