package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xaenox/nova-forum/internal/audit"
	"github.com/xaenox/nova-forum/internal/bot"
	"github.com/xaenox/nova-forum/internal/enrichment"
	"github.com/xaenox/nova-forum/internal/intelligence"
	"github.com/xaenox/nova-forum/internal/models"
	"github.com/xaenox/nova-forum/internal/thread"
	"github.com/xaenox/nova-forum/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize moderation journal
	var journal audit.Journal
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory moderation journal")
		journal = audit.NewMemoryJournal()
	} else {
		logger.Info("Using PostgreSQL moderation journal")
		journal, err = audit.NewPostgresJournal(audit.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize journal", zap.Error(err))
		}
	}
	defer journal.Close()

	provider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize intelligence provider", zap.Error(err))
	}

	// Initialize the forum
	store := thread.NewStore(logger,
		thread.WithBot(models.BotIdentity{Name: cfg.Forum.BotName, AvatarRef: cfg.Forum.BotAvatar}),
		thread.WithJournal(journal))
	if cfg.Forum.SeedDemo {
		store.Seed(thread.DemoThreads(store.Bot())...)
	}

	pipeline := enrichment.New(store, provider, enrichment.Config{
		Timeout:       cfg.Intelligence.Timeout,
		BotReplyDelay: cfg.Intelligence.BotReplyDelay,
		MaxInFlight:   cfg.Intelligence.MaxInFlight,
	}, logger)
	defer pipeline.Close()
	store.SetScheduler(pipeline)

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, store, journal, cfg.Forum.IsAdmin, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Error("Bot error", zap.Error(err))
	}
	logger.Info("Shutting down")
}

// newProvider picks the configured backend, falling back to the offline
// keyword provider when no API key is set
func newProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (intelligence.Provider, error) {
	maxTags := cfg.Classifier.MaxTags

	switch cfg.Intelligence.Backend {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			break
		}
		logger.Info("Using OpenAI provider", zap.String("model", cfg.OpenAI.Model))
		return intelligence.NewOpenAIProvider(intelligence.OpenAIConfig{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.Model,
			MaxTokens:         cfg.OpenAI.MaxTokens,
			Temperature:       cfg.OpenAI.Temperature,
			MaxTags:           maxTags,
			RequestsPerMinute: cfg.Intelligence.RequestsPerMinute,
		}, logger), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			break
		}
		logger.Info("Using Gemini provider", zap.String("model", cfg.Gemini.Model))
		gemini, err := intelligence.NewGeminiProvider(ctx, intelligence.GeminiConfig{
			APIKey:            cfg.Gemini.APIKey,
			BaseURL:           cfg.Gemini.BaseURL,
			Model:             cfg.Gemini.Model,
			MaxTokens:         cfg.Gemini.MaxTokens,
			Temperature:       cfg.Gemini.Temperature,
			MaxTags:           maxTags,
			RequestsPerMinute: cfg.Intelligence.RequestsPerMinute,
		}, logger)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case "local":
	default:
		return nil, errors.New("unknown intelligence backend: " + cfg.Intelligence.Backend)
	}

	logger.Info("Using offline keyword provider", zap.String("backend", cfg.Intelligence.Backend))
	return intelligence.NewKeywordProvider(maxTags), nil
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server stopped", zap.Error(err))
	}
}
