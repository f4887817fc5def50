package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/viper"

	"kbase/internal/api"
	"kbase/internal/config"
	"kbase/internal/database"
	"kbase/internal/llm"
	"kbase/internal/repository"
	"kbase/internal/service"
)

const (
	// Answering with a local model on CPU can take minutes.
	requestTimeout  = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
)

// App holds the long-lived resources of a running server.
type App struct {
	DB     *sql.DB
	Server *http.Server
}

// NewApp opens the database, initializes settings and wires every service and handler.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)

	ollamaProvider, err := llm.NewOllamaProvider(cfg.OllamaURL, cfg.EmbeddingModel)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	openAIProvider := llm.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIModel)

	repo := repository.NewSQLiteRepository(db)
	settingsService := service.NewSettingsService(db, ollamaProvider)

	appSettings, err := settingsService.InitAndGet(context.Background(), service.Settings{
		SystemPrompt: cfg.InitialSystemPrompt,
		AnswerModel:  cfg.AnswerModel,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize application settings: %w", err)
	}
	slog.Info("Loaded application settings", "answer_model", appSettings.AnswerModel, "api_key_set", appSettings.APIKeySet)

	router := llm.NewRouter(ollamaProvider, openAIProvider, cfg.OpenAIModel)
	knowledgeService := service.NewKnowledgeService(repo, ollamaProvider, service.KnowledgeOptions{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		MaxFileSize:  cfg.MaxFileSize,
		MaxFileCount: cfg.MaxFileCount,
	})
	questionService := service.NewQuestionService(repo, ollamaProvider, router, settingsService, cfg.TopK)
	modelService := service.NewModelService(ollamaProvider, openAIProvider)

	handler := api.NewRouter(api.Handlers{
		Knowledge: api.NewKnowledgeHandler(knowledgeService, api.UploadLimits{
			MaxUploadSize: cfg.MaxUploadSize,
			MaxFileSize:   cfg.MaxFileSize,
		}),
		Question: api.NewQuestionHandler(questionService),
		Settings: api.NewSettingsHandler(settingsService),
		Model:    api.NewModelHandler(modelService),
	}, requestTimeout)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           handler,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      requestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &App{DB: db, Server: server}, nil
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WaitForOllama {
		if err := waitForOllama(ctx, cfg.OllamaURL); err != nil {
			slog.Error("Ollama did not become ready", "error", err)
			return 1
		}
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to start application", "error", err)
		return 1
	}
	defer func() {
		if err := app.DB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.AppPort)
		serveErr <- app.Server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			return 1
		}
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// waitForOllama blocks until Ollama answers a heartbeat or ctx is cancelled.
func waitForOllama(ctx context.Context, ollamaURL string) error {
	provider, err := llm.NewOllamaProvider(ollamaURL, "")
	if err != nil {
		return err
	}

	slog.Info("Waiting for Ollama to be ready...", "url", ollamaURL)
	err = retry.Do(
		func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return provider.Heartbeat(attemptCtx)
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(3*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("Ollama not ready yet, retrying in 3 seconds...", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return err
	}
	slog.Info("Ollama is ready.")
	return nil
}
