package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/officing/config"
	"github.com/cppla/officing/controllers"
	"github.com/cppla/officing/middleware"
	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svcs *services.Services) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.OtelEnabled {
		r.Use(otelgin.Middleware(cfg.OtelServiceName))
	}
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Logger.Warn("gin file logger unavailable", zap.Error(err))
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.AdminKeyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.HitRecorder(svcs.Stats))

	r.GET("/health", func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			utils.Fail(ctx, http.StatusServiceUnavailable, "database_unavailable", "database unavailable")
			return
		}
		utils.OK(ctx, gin.H{"status": "ok"})
	})

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	lockTTL := time.Duration(cfg.UserLockSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}

	checkinController := controllers.NewCheckInController(svcs)
	questController := controllers.NewQuestController(svcs)
	lotteryController := controllers.NewLotteryController(svcs)
	profileController := controllers.NewProfileController(svcs)
	shopController := controllers.NewShopController(svcs)
	configController := controllers.NewConfigController(svcs)
	statsController := controllers.NewStatsController(svcs, loc)
	catalogController := controllers.NewCatalogController(db, svcs)
	sessionController := controllers.NewSessionController()

	api := r.Group("/api/v1")

	// Public config endpoints
	api.GET("/config/rewards", configController.GetRewards)
	api.GET("/shop/items", shopController.Items)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/auth/logout", sessionController.Logout)

	protected.POST("/checkin", middleware.InFlightLock("checkin", lockTTL), checkinController.CheckIn)
	protected.GET("/checkin/stamps", checkinController.Stamps)

	protected.GET("/quests/daily", questController.Today)
	protected.POST("/quests/daily", middleware.InFlightLock("quest_assign", lockTTL), questController.AssignDaily)
	protected.POST("/quests/complete", middleware.InFlightLock("quest_complete", lockTTL), questController.Complete)

	protected.POST("/lottery/draw", middleware.InFlightLock("lottery_draw", lockTTL), lotteryController.Draw)
	protected.GET("/lottery/status", lotteryController.Status)

	protected.GET("/progress", profileController.Progress)
	protected.GET("/titles", profileController.Titles)
	protected.PUT("/titles/active", profileController.SetActiveTitle)

	protected.POST("/shop/purchase", middleware.InFlightLock("shop_purchase", lockTTL), shopController.Purchase)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	admin.GET("/stats/daily", statsController.GetDaily)
	admin.PUT("/catalog", catalogController.Apply)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Fail(ctx, http.StatusNotFound, "not_found", "route not found")
	})

	return r
}
