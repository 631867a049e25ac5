package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// LotteryController serves gacha draws.
type LotteryController struct {
	lottery *services.LotteryService
}

// NewLotteryController creates a new controller instance.
func NewLotteryController(svcs *services.Services) *LotteryController {
	return &LotteryController{lottery: svcs.Lottery}
}

// Draw spends one ticket.
func (l *LotteryController) Draw(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	res, err := l.lottery.Draw(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	body := gin.H{
		"prize":            res.Prize,
		"rank":             res.Rank,
		"pityCounter":      res.PityCounter,
		"pityApplied":      res.PityApplied,
		"ticketsRemaining": res.TicketsRemaining,
	}
	if res.PointsAwarded > 0 {
		body["pointsAwarded"] = res.PointsAwarded
	}
	if res.TitleUnlocked != nil {
		body["titleUnlocked"] = res.TitleUnlocked
	}
	utils.OK(ctx, body)
}

// Status returns tickets, pity progress and the prize table.
func (l *LotteryController) Status(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	status, err := l.lottery.Status(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"status": status})
}
