package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/team-insights/internal/api"
	"github.com/Kamar-Folarin/team-insights/internal/config"
	"github.com/Kamar-Folarin/team-insights/internal/dashboard"
	"github.com/Kamar-Folarin/team-insights/internal/db"
	"github.com/Kamar-Folarin/team-insights/internal/github"
)

// @title Team Insights API
// @version 1.0
// @description Team activity, repository schedules and project progress aggregated from GitHub
// @contact.name API Support
// @contact.url http://github.com/Kamar-Folarin
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.DBConnectionString, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	board := dashboard.NewService(
		dashboard.WithPageSize(cfg.PageSize),
		dashboard.WithProjectStore(store),
		dashboard.WithLogger(logger),
	)
	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		logger.Fatalf("Failed to load stored snapshot: %v", err)
	}
	if !snap.FetchedAt.IsZero() {
		board.Replace(snap)
		logger.WithField("fetched_at", snap.FetchedAt).Info("Restored snapshot from database")
	} else if err := board.LoadProjects(ctx); err != nil {
		logger.Fatalf("Failed to load projects: %v", err)
	}

	client := github.NewGitHubClient(cfg.GitHubToken, logger,
		github.WithBaseURL(cfg.GitHub.APIBaseURL),
		github.WithRetryConfig(
			cfg.GitHub.RateLimit.MaxRetries,
			cfg.GitHub.RateLimit.InitialBackoff,
			cfg.GitHub.RateLimit.MaxBackoff,
		),
	)
	collector := github.NewCollector(client, cfg.Sync, logger)
	statusManager := github.NewStatusManager(store)
	syncService := github.NewSyncService(collector, store, statusManager, board, cfg, logger)

	if err := syncService.Recover(ctx); err != nil {
		logger.Warnf("Failed to recover interrupted syncs: %v", err)
	}
	if err := syncService.Start(cfg.SyncSchedule); err != nil {
		logger.Fatalf("Failed to schedule sync: %v", err)
	}
	if cfg.SyncOnStart {
		if _, err := syncService.TriggerSync(ctx); err != nil {
			logger.Warnf("Initial sync not started: %v", err)
		}
	}

	router := api.SetupRouter(api.NewHandler(board, syncService, logger), logger)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	syncService.Stop()
	logger.Info("Server exited properly")
}

// openStore connects and migrates, retrying while the database comes up.
func openStore(ctx context.Context, dsn string, logger *logrus.Logger) (*db.PostgresStore, error) {
	var store *db.PostgresStore
	backoff := retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, err := db.NewPostgresStore(dsn, logger)
		if err != nil {
			logger.Warnf("Database not ready: %v", err)
			return retry.RetryableError(err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			logger.Warnf("Migration failed: %v", err)
			return retry.RetryableError(err)
		}
		store = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
