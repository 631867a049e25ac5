package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// ConfigController exposes the live reward rules to clients.
type ConfigController struct {
	rules *services.RuleSet
}

func NewConfigController(svcs *services.Services) *ConfigController {
	return &ConfigController{rules: svcs.Rules}
}

// GetRewards returns the reward constants currently in effect.
func (c *ConfigController) GetRewards(ctx *gin.Context) {
	r := c.rules.Get()
	utils.OK(ctx, gin.H{
		"rewards": gin.H{
			"checkinXP":        r.CheckinXP,
			"checkinPoints":    r.CheckinPoints,
			"checkinTickets":   r.CheckinTickets,
			"ticketMilestones": r.TicketMilestones,
			"pityThreshold":    r.PityThreshold,
			"dailyQuestCount":  r.DailyQuestCount,
		},
	})
}
