package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/officing/config"
	"github.com/cppla/officing/models"
	"github.com/cppla/officing/observability"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
	"github.com/cppla/officing/routes"
	"github.com/cppla/officing/services"
	"github.com/cppla/officing/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := observability.InitOTel(ctx, utils.Logger, cfg)

	db := config.InitDatabase(models.All()...)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		utils.Logger.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	deps := services.Deps{
		Store:        repository.NewGormStore(db),
		Logger:       utils.Logger,
		Location:     loc,
		Rules:        rulesFrom(cfg.Rewards),
		DefaultTag:   cfg.DefaultTag,
		MaxClockSkew: time.Duration(cfg.MaxClockSkewSec) * time.Second,
	}
	if cache := utils.NewRedisCache(utils.GetRedis(), "officing:"); cache != nil {
		deps.Cache = cache
	}
	svcs := services.New(deps)

	// Reward constants follow config.json without a restart
	config.Watch(func(rc config.RewardConfig) {
		svcs.Rules.Set(rulesFrom(rc))
	})

	// Remove incomplete quest logs from earlier days (best-effort)
	utils.StartQuestLogSweeper(ctx, time.Hour, svcs.Quests.SweepStale)

	r := routes.SetupRouter(db, svcs)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r, func(shutdownCtx context.Context) {
		cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			utils.Logger.Warn("tracer shutdown", zap.Error(err))
		}
	})
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

func rulesFrom(rc config.RewardConfig) rewards.Rules {
	return rewards.Rules{
		CheckinXP:        rc.CheckinXP,
		CheckinPoints:    rc.CheckinPoints,
		CheckinTickets:   rc.CheckinTickets,
		TicketMilestones: rc.TicketMilestones,
		PityThreshold:    rc.PityThreshold,
		DailyQuestCount:  rc.DailyQuestCount,
	}
}
