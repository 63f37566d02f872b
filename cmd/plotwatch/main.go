package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/plotwatch/plotwatch/internal/alerting/api"
	"github.com/plotwatch/plotwatch/internal/alerting/cache"
	adb "github.com/plotwatch/plotwatch/internal/alerting/database"
	"github.com/plotwatch/plotwatch/internal/alerting/delivery"
	"github.com/plotwatch/plotwatch/internal/alerting/engine"
	"github.com/plotwatch/plotwatch/internal/alerting/policy"
	"github.com/plotwatch/plotwatch/internal/config"
	"github.com/plotwatch/plotwatch/internal/middleware"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("Starting plotwatch api server")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// configure log level from config
	switch strings.ToLower(cfg.Logging.Level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	pol, err := policy.Load(cfg.Alerting.PolicyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load alert policy")
	}

	db, err := adb.New(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var readingCache cache.ReadingCache = cache.Noop{}
	if rdb := cache.NewRedisClientFromConfig(&cfg.Redis); rdb != nil {
		readingCache = cache.New(rdb, cfg.Alerting.Ingest.GetIdempotencyTTL())
	}

	dispatcher := delivery.NewDispatcher(pol,
		delivery.NewEmailChannel(cfg.Alerting.Email),
		delivery.NewWebhookChannel(cfg.Alerting.Webhook),
	)
	plots := cache.PlotStatusWriteThrough{Store: db, Cache: readingCache}
	eng := engine.New(plots, db, dispatcher, pol)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger)
	api.NewApi(router, api.Deps{
		DB:         db,
		Engine:     eng,
		Dispatcher: dispatcher,
		Cache:      readingCache,
		Cfg:        cfg,
	})

	log.Info().Msgf("Starting server on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("start plotwatch api server failed.")
	}
	log.Info().Msg("plotwatch api server exit...")
}
