package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// ShopController sells items for points.
type ShopController struct {
	shop *services.ShopService
}

// NewShopController creates a new controller instance.
func NewShopController(svcs *services.Services) *ShopController {
	return &ShopController{shop: svcs.Shop}
}

type purchaseRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

// Items lists the active shop items.
func (s *ShopController) Items(ctx *gin.Context) {
	items, err := s.shop.Items(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"items": items})
}

func (s *ShopController) Purchase(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ItemID) == "" {
		badRequest(ctx, "itemId is required")
		return
	}
	res, err := s.shop.Purchase(ctx.Request.Context(), userID, strings.TrimSpace(req.ItemID))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.OK(ctx, gin.H{"purchase": res})
}
