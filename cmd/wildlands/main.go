package main

import (
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veles-tales/wildlands/internal/api"
	"github.com/veles-tales/wildlands/internal/catalog"
	"github.com/veles-tales/wildlands/internal/combat"
	"github.com/veles-tales/wildlands/internal/config"
	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/duel"
	"github.com/veles-tales/wildlands/internal/expedition"
	"github.com/veles-tales/wildlands/internal/logging"
	"github.com/veles-tales/wildlands/internal/rating"
	"github.com/veles-tales/wildlands/internal/service"
	"github.com/veles-tales/wildlands/internal/storage"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		logging.Fatal("Invalid environment configuration", err, nil)
	}

	content, err := config.LoadContent(settings.ConfigPath)
	if err != nil {
		logging.Fatal("Missing or invalid game content", err, logging.Fields{
			"config_path": settings.ConfigPath,
			"hint":        "create a wildlands_config.json with 'items' and 'areas' arrays (plus optional 'races'/'classes')",
		})
	}

	db, err := storage.OpenAndMigrate(settings.DBPath, content)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	redisClient, err := storage.NewRedisClient(settings.RedisURL)
	if err != nil {
		logging.Fatal("Failed to connect to redis", err, nil)
	}

	contentCache := catalog.New(storage.NewCatalogSource(repo))

	var stats combat.Provider
	if settings.StatsBackend == "baseline" {
		logging.Info("Using baseline combat stats provider", nil)
		stats = combat.BaselineProvider{}
	} else {
		stats = storage.NewDBStatsProvider(repo)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rewards := service.NewDistributor(repo)

	expeditions := expedition.NewEngine(
		storage.NewRedisExpeditionStore(redisClient, settings.ExpeditionTTL),
		contentCache,
		repo,
		rewards,
		rng,
	)
	duels := duel.NewEngine(
		storage.NewRedisDuelStore(redisClient, settings.DuelTTL),
		storage.NewRedisTurnLock(redisClient, settings.TurnLockTTL),
		stats,
		repo,
		rng,
	)
	login := service.NewDailyLogin(repo, rng)

	// Background scanner: roll the period ladders over at their UTC
	// boundaries so daily/weekly/monthly ratings start fresh.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		last := time.Now().UTC()
		for range ticker.C {
			now := time.Now().UTC()
			if dayChanged(last, now) {
				resetScale(repo, rating.ScaleDay)
				if weekChanged(last, now) {
					resetScale(repo, rating.ScaleWeek)
				}
				if last.Month() != now.Month() || last.Year() != now.Year() {
					resetScale(repo, rating.ScaleMonth)
				}
			}
			last = now
		}
	}()

	handler := api.NewHandler(repo, expeditions, duels, login)

	router := gin.Default()
	apiRoutes := router.Group(constants.RouteAPIPrefix)
	apiRoutes.Use(api.IdentityRequired(repo))
	{
		apiRoutes.POST(constants.RouteExpeditionStart, handler.StartExpedition)
		apiRoutes.POST(constants.RouteExpeditionChoice, handler.SubmitExpeditionChoice)
		apiRoutes.GET(constants.RouteExpeditionState, handler.GetExpeditionState)

		apiRoutes.POST(constants.RouteQueueJoin, handler.JoinQueue)
		apiRoutes.POST(constants.RouteQueueLeave, handler.LeaveQueue)
		apiRoutes.GET(constants.RouteQueueMe, handler.QueueMe)

		apiRoutes.GET(constants.RouteArenaStatus, handler.ArenaStatus)
		apiRoutes.GET(constants.RouteArenaLadder, handler.Ladder)

		apiRoutes.GET(constants.RouteDuelActive, handler.ActiveDuel)
		apiRoutes.GET(constants.RouteDuelState, handler.GetDuelState)
		apiRoutes.POST(constants.RouteDuelAttack, handler.AttackDuel)
		apiRoutes.POST(constants.RouteDuelHeal, handler.HealDuel)
		apiRoutes.POST(constants.RouteDuelSurrender, handler.SurrenderDuel)

		apiRoutes.POST(constants.RouteDailyLogin, handler.ClaimDailyLogin)
	}

	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: settings.ServerAddress})
	if err := router.Run(settings.ServerAddress); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

func dayChanged(a, b time.Time) bool {
	return a.YearDay() != b.YearDay() || a.Year() != b.Year()
}

func weekChanged(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay != by || aw != bw
}

func resetScale(repo storage.Repository, s rating.Scale) {
	if err := repo.ResetScale(s); err != nil {
		logging.Error("failed to reset rating period", err, logging.Fields{"scale": string(s)})
		return
	}
	logging.Info("rating period reset", logging.Fields{"scale": string(s)})
}
