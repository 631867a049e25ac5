package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// QuestController serves daily quests and quest completion.
type QuestController struct {
	quests *services.QuestService
}

// NewQuestController creates a new controller instance.
func NewQuestController(svcs *services.Services) *QuestController {
	return &QuestController{quests: svcs.Quests}
}

type completeQuestRequest struct {
	QuestLogID string `json:"questLogId" binding:"required"`
}

// Today lists the caller's quests for today.
func (q *QuestController) Today(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	logs, err := q.quests.Today(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if logs == nil {
		logs = []models.UserQuestLog{}
	}
	utils.OK(ctx, gin.H{"quests": logs})
}

// AssignDaily hands out today's daily quests.
func (q *QuestController) AssignDaily(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	logs, err := q.quests.AssignDaily(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"quests": logs})
}

// Complete finishes one assigned quest and grants its rewards.
func (q *QuestController) Complete(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req completeQuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.QuestLogID) == "" {
		badRequest(ctx, "questLogId is required")
		return
	}

	res, err := q.quests.Complete(ctx.Request.Context(), userID, strings.TrimSpace(req.QuestLogID))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{
		"rewards":   res.Rewards,
		"newTitles": res.NewTitles,
	})
}
