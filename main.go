package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/hn-links/internal/api"
	"github.com/jonesrussell/hn-links/internal/config"
	"github.com/jonesrussell/hn-links/internal/handler"
	"github.com/jonesrussell/hn-links/internal/logger"
	"github.com/jonesrussell/hn-links/internal/scraper"
	"github.com/jonesrussell/hn-links/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	db, err := connectDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	return runService(cfg, log, db)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// connectDatabase opens the connection pool and applies pending schema
// migrations before any traffic is accepted.
func connectDatabase(cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	db, err := storage.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, err
	}

	if migrateErr := storage.Migrate(cfg.Database); migrateErr != nil {
		_ = db.Close()
		return nil, migrateErr
	}

	log.Info("Database ready",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)

	return db, nil
}

// runService creates all dependencies, starts the scrape schedule, and
// runs the HTTP server until shutdown.
func runService(cfg *config.Config, log logger.Logger, db *sqlx.DB) int {
	counters := storage.NewCounterRepository(db)
	links := storage.NewLinkRepository(db, counters)

	scrape := scraper.NewService(
		scraper.NewFetcher(cfg.Scraper),
		scraper.NewExtractor(cfg.Scraper.BaseURL),
		links,
		log.With(logger.String("component", "scraper")),
		cfg.Scraper.Interval,
	)
	if err := scrape.Start(context.Background()); err != nil {
		log.Error("Failed to start scraper", logger.Error(err))
		return 1
	}
	defer scrape.Stop()

	healthHandler := handler.NewHealthHandler(cfg.Service.Version, db.Ping)
	linksHandler := handler.NewLinksHandler(links, counters, log)
	counterHandler := handler.NewCounterHandler(counters, log)

	server := api.NewServer(cfg, log, func(router *gin.Engine) {
		api.SetupRoutes(router, healthHandler, linksHandler, counterHandler)
	})

	log.Info("Service starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("thread", cfg.Scraper.ThreadURL()),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Service exited cleanly")
	return 0
}
