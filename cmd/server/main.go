// Command server runs the engagement engine HTTP API, the nightly score
// and badge sweeps, and the Prometheus metrics endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiengagement "github.com/edupulse/engage/internal/api/engagement"
	"github.com/edupulse/engage/internal/config"
	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/internal/repository"
	"github.com/edupulse/engage/internal/service/badges"
	"github.com/edupulse/engage/internal/service/engagement"
	"github.com/edupulse/engage/internal/service/leaderboard"
	"github.com/edupulse/engage/internal/service/scheduler"
	"github.com/edupulse/engage/internal/service/scoring"
	"github.com/edupulse/engage/pkg/cache"
	"github.com/edupulse/engage/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if cfg.Database.Postgres.MigrationsDir != "" {
		if err := db.RunMigrations(cfg.Database.Postgres.MigrationsDir, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	} else {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to auto-migrate schema: %w", err)
		}
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}()

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	userRepo := repository.NewUserRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	// Badge catalog
	if cfg.Badges.CatalogFile != "" {
		if err := badges.SeedCatalog(cfg.Badges.CatalogFile, badgeRepo, log); err != nil {
			return fmt.Errorf("failed to seed badge catalog: %w", err)
		}
	}

	// Services
	scoringService := scoring.NewService(eventRepo, scoreRepo, userRepo, cfg.Scoring.WeekStartDay, log)
	cards := engagement.NewResolverChain(models.CardGeneral)
	engagementService := engagement.NewService(
		engagementRepo,
		cards,
		cfg.Engagement.MinViewSeconds,
		cfg.Engagement.MinAccuracyPercent,
		log,
	)
	badgeService := badges.NewService(db, cfg.Badges.WindowDays, log)
	leaderboardService := leaderboard.NewService(
		db,
		redisCache,
		time.Duration(cfg.Leaderboard.CacheTTLSeconds)*time.Second,
		cfg.Leaderboard.DefaultLimit,
		log,
	)

	// Scheduler
	sched := scheduler.NewService(cfg, scoringService, badgeService, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP server
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := apiengagement.NewHandler(scoringService, engagementService, badgeService, leaderboardService, log)
	handler.RegisterRoutes(router.Group("/api/v1"))

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		if err := redisCache.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
