package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/handlers"
	"github.com/JAGANADITHYA/walk1/internal/metrics"
	"github.com/JAGANADITHYA/walk1/internal/middleware"
	"github.com/JAGANADITHYA/walk1/internal/services"
	"github.com/JAGANADITHYA/walk1/internal/storage"
	"github.com/JAGANADITHYA/walk1/internal/util"
)

func main() {
	logger := logrus.New()
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}

	if cfg.Env == config.EnvLocal {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	log := logger.WithField("service", "walk1")

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("failed to load timezone")
	}
	util.SetLocation(loc)

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		store = storage.NewMemoryStore()
	default:
		db, err := storage.OpenPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to postgres")
		}
		pg := storage.NewPostgresStore(db, log)
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("failed to migrate schema")
		}
		store = pg
	}

	redisService, err := services.NewRedisService(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)
	catalog := services.NewCatalog(cfg.MetroMaxCoinShare)

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginPerSecond, cfg.LoginBurst)
	loginLimiter.StartCleanup(ctx, 10*time.Minute, 10000)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Store:      store,
		Auth:       services.NewAuthService(store, redisService, jwtService, log),
		Tokens:     jwtService,
		Sessions:   redisService,
		RateLimits: redisService,
		Events:     redisService,
		Walks:      services.NewWalkTracker(store, redisService, services.WalkRulesFromConfig(cfg.Rules), log),
		Accounting: services.NewAccounting(store, catalog, redisService,
			services.AccountingRulesFromConfig(cfg.Rules), log),
		Dashboards: services.NewDashboardService(store),
		Health: map[string]handlers.Pinger{
			"database": store,
			"redis":    redisService,
		},
		Limits:       cfg.Limits,
		Log:          log,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
