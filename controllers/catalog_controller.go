package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/officing/catalog"
	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

const maxCatalogBytes = 1 << 20

// CatalogController replaces prize, quest, title and shop definitions.
type CatalogController struct {
	db     *gorm.DB
	titles *services.TitleCatalog
}

// NewCatalogController creates a new controller instance.
func NewCatalogController(db *gorm.DB, svcs *services.Services) *CatalogController {
	return &CatalogController{db: db, titles: svcs.Catalog}
}

// Apply upserts a YAML catalog posted as the request body.
func (c *CatalogController) Apply(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxCatalogBytes+1))
	if err != nil {
		badRequest(ctx, "unreadable body")
		return
	}
	if len(body) > maxCatalogBytes {
		utils.Fail(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "catalog too large")
		return
	}

	cat, err := catalog.Parse(body)
	if err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "invalid_catalog", err.Error())
		return
	}

	sum, err := catalog.Apply(ctx.Request.Context(), c.db, cat)
	if err != nil {
		if errors.Is(err, catalog.ErrConflict) {
			utils.Fail(ctx, http.StatusConflict, "catalog_conflict", err.Error())
			return
		}
		respondError(ctx, err)
		return
	}
	c.titles.Invalidate(ctx.Request.Context())

	utils.Logger.Info("catalog applied",
		zap.Int("prizes", sum.Prizes),
		zap.Int("quests", sum.Quests),
		zap.Int("titles", sum.Titles),
	)
	utils.OK(ctx, gin.H{"applied": sum})
}
