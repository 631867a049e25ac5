package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// StatsController provides operator statistics such as daily check-ins and draws.
type StatsController struct {
	stats *services.StatsService
	loc   *time.Location
}

// NewStatsController creates a new StatsController instance. Dates in
// queries are read in loc.
func NewStatsController(svcs *services.Services, loc *time.Location) *StatsController {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsController{stats: svcs.Stats, loc: loc}
}

// GetDaily returns the activity of ?date=YYYY-MM-DD, today by default.
func (s *StatsController) GetDaily(ctx *gin.Context) {
	var day time.Time
	if raw := ctx.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, raw, s.loc)
		if err != nil {
			badRequest(ctx, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	stats, err := s.stats.Daily(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if stats.Hits == nil {
		stats.Hits = []models.EndpointHit{}
	}
	utils.OK(ctx, gin.H{"stats": stats})
}
