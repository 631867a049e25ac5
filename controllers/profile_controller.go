package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// ProfileController serves the caller's progress and titles.
type ProfileController struct {
	profile *services.ProfileService
}

// NewProfileController creates a new controller instance.
func NewProfileController(svcs *services.Services) *ProfileController {
	return &ProfileController{profile: svcs.Profile}
}

type activeTitleRequest struct {
	// TitleID nil clears the active title.
	TitleID *string `json:"titleId"`
}

func (p *ProfileController) Progress(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	view, err := p.profile.Progress(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"progress": view})
}

func (p *ProfileController) Titles(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	views, err := p.profile.Titles(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"titles": views})
}

// SetActiveTitle sets or clears the displayed title.
func (p *ProfileController) SetActiveTitle(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req activeTitleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}
	if req.TitleID != nil {
		id := strings.TrimSpace(*req.TitleID)
		if id == "" {
			req.TitleID = nil
		} else {
			req.TitleID = &id
		}
	}
	if err := p.profile.SetActiveTitle(ctx.Request.Context(), userID, req.TitleID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"activeTitleId": req.TitleID})
}
