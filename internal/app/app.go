// Package app wires configuration, storage, clients, and services
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/fundwatch/internal/clients/amfi"
	"github.com/bobmcallan/fundwatch/internal/clients/gemini"
	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/interfaces"
	"github.com/bobmcallan/fundwatch/internal/services/analysis"
	"github.com/bobmcallan/fundwatch/internal/services/chat"
	"github.com/bobmcallan/fundwatch/internal/services/ingest"
	"github.com/bobmcallan/fundwatch/internal/storage"
)

// App holds all initialized services and clients. It is the shared
// core behind cmd/fundwatch-server.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         interfaces.StorageManager
	AMFIClient      interfaces.AMFIClient
	GeminiClient    interfaces.GeminiClient
	IngestService   interfaces.IngestService
	AnalysisService interfaces.AnalysisService
	ChatService     interfaces.ChatService
	StartupTime     time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic
// is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, FUNDWATCH_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FUNDWATCH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fundwatch.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fundwatch.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to the binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	// Initialize logger
	logger := common.NewLoggerFromConfig(config.Logging)

	// Initialize storage
	storageManager, err := storage.NewManager(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize API clients
	amfiClient := amfi.NewClient(
		amfi.WithFeedURL(config.Clients.AMFI.FeedURL),
		amfi.WithLogger(logger),
		amfi.WithRateLimit(config.Clients.AMFI.RateLimit),
		amfi.WithTimeout(config.Clients.AMFI.GetTimeout()),
	)

	ctx := context.Background()
	var geminiClient interfaces.GeminiClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			geminiClient = client
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - chat answers will be unavailable")
	}

	// Initialize services
	ingestService := ingest.NewService(storageManager, amfiClient, config, logger)
	analysisService := analysis.NewService(storageManager, config, logger)
	chatService := chat.NewService(analysisService, geminiClient, config, logger)

	a := &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		AMFIClient:      amfiClient,
		GeminiClient:    geminiClient,
		IngestService:   ingestService,
		AnalysisService: analysisService,
		ChatService:     chatService,
		StartupTime:     startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartScheduler launches the cron-driven daily ingest.
func (a *App) StartScheduler() error {
	scheduler, err := NewScheduler(a.Config.Ingest.Schedule, a.IngestService, a.Logger)
	if err != nil {
		return err
	}
	a.scheduler = scheduler
	a.scheduler.Start()
	return nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
