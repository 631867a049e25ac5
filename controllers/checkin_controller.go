package controllers

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// CheckInController handles daily attendance endpoints.
type CheckInController struct {
	checkin *services.CheckInService
	profile *services.ProfileService
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(svcs *services.Services) *CheckInController {
	return &CheckInController{checkin: svcs.CheckIn, profile: svcs.Profile}
}

type checkInRequest struct {
	Tag       string     `json:"tag"`
	Timestamp *time.Time `json:"timestamp"`
}

// CheckIn records today's attendance. The body is optional.
func (c *CheckInController) CheckIn(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	// the body is optional; an empty one, chunked or not, means defaults
	var req checkInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(ctx, "invalid request body")
		return
	}

	res, err := c.checkin.CheckIn(ctx.Request.Context(), services.CheckInInput{
		UserID:    userID,
		Tag:       utils.SanitizeTag(req.Tag),
		Timestamp: req.Timestamp,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{
		"attendance": res.Attendance,
		"rewards":    res.Rewards,
		"newTitles":  res.NewTitles,
	})
}

// Stamps returns one month of attendance; ?year=&month= default to now.
func (c *CheckInController) Stamps(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	year, err := queryInt(ctx, "year")
	if err != nil {
		badRequest(ctx, "invalid year")
		return
	}
	month, err := queryInt(ctx, "month")
	if err != nil {
		badRequest(ctx, "invalid month")
		return
	}

	card, err := c.profile.Stamps(ctx.Request.Context(), userID, year, month)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"stamps": card})
}

func queryInt(ctx *gin.Context, key string) (int, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
