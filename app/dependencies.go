package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/config"
	"github.com/promptpilot/model-router/middleware"
	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/repositories/postgres"
	"github.com/promptpilot/model-router/services/analytics"
	"github.com/promptpilot/model-router/services/catalog"
	"github.com/promptpilot/model-router/services/classifier"
	"github.com/promptpilot/model-router/services/providers"
	"github.com/promptpilot/model-router/services/providers/anthropic"
	"github.com/promptpilot/model-router/services/providers/google"
	"github.com/promptpilot/model-router/services/providers/huggingface"
	"github.com/promptpilot/model-router/services/providers/openai"
	"github.com/promptpilot/model-router/services/router"
	"github.com/promptpilot/model-router/services/routing"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Catalog          *catalog.Catalog
	ClientPool       *providers.Pool
	RouterService    *router.Service
	AnalyticsService *analytics.Service
	AnalyticsSink    *analytics.PostgresSink
	AdminAuth        *middleware.AdminAuth
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.Catalog = catalog.NewDefault(logger)
	deps.ClientPool = providers.NewPool(deps.Catalog, clientFactory(cfg), logger)
	deps.AnalyticsService = analytics.NewService(logger)
	deps.AdminAuth = middleware.NewAdminAuth(cfg.Admin.JWTSecret, logger)

	if cfg.Analytics.DatabaseURL != "" {
		if err := deps.initAnalyticsSink(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize analytics sink: %w", err)
		}
	}

	hybrid := classifier.NewHybridClassifier(
		classifier.NewHeuristicClassifier(),
		classifier.NewModelClassifier(deps.ClientPool, classifier.DefaultClassifierModelKey),
		logger,
	)

	engine := routing.NewEngine(deps.Catalog, logger)
	deps.RouterService = router.NewService(
		router.Config{
			RequestTimeout: cfg.Router.RequestTimeout,
			DefaultPreset:  cfg.Router.DefaultPreset,
		},
		deps.Catalog,
		engine,
		router.HybridAdapter{Hybrid: hybrid},
		deps.ClientPool,
		deps.AnalyticsService,
		logger,
	)

	logger.Info("all dependencies initialized",
		zap.Int("models", len(deps.Catalog.Keys())),
		zap.Bool("analytics_sink", deps.AnalyticsSink != nil),
		zap.Bool("admin_auth", deps.AdminAuth.Enabled()))
	return deps, nil
}

// initAnalyticsSink connects to Postgres and starts the background writers.
func (d *Dependencies) initAnalyticsSink(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.Open(ctx, cfg.Analytics.DatabaseURL)
	if err != nil {
		return err
	}
	repo := postgres.NewRequestLogRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	sink := analytics.NewPostgresSink(repo, d.Logger, analytics.DefaultSinkConfig())
	if err := sink.Start(); err != nil {
		return err
	}
	d.AnalyticsSink = sink
	d.AnalyticsService.SetSink(sink)
	return nil
}

// Shutdown stops background workers.
func (d *Dependencies) Shutdown(timeout time.Duration) {
	if d.AnalyticsSink != nil {
		if err := d.AnalyticsSink.Stop(timeout); err != nil {
			d.Logger.Warn("analytics sink shutdown", zap.Error(err))
		}
	}
}

// clientFactory builds provider clients from the configured credentials. A
// missing credential fails only that provider's models.
func clientFactory(cfg *config.Config) providers.ClientFactory {
	return func(d models.ModelDescriptor) (providers.Client, error) {
		timeout := cfg.Router.RequestTimeout
		switch d.Provider {
		case models.ProviderOpenAI:
			return openai.NewClient(openai.Config{APIKey: cfg.Providers.OpenAIAPIKey, Timeout: timeout}, d.ProviderModelName)
		case models.ProviderAnthropic:
			return anthropic.NewClient(anthropic.Config{APIKey: cfg.Providers.AnthropicAPIKey, Timeout: timeout}, d.ProviderModelName)
		case models.ProviderGoogle:
			return google.NewClient(google.Config{APIKey: cfg.Providers.GoogleAPIKey, Timeout: timeout}, d.ProviderModelName)
		case models.ProviderHuggingFace:
			return huggingface.NewClient(huggingface.Config{APIKey: cfg.Providers.HuggingFaceAPIKey, Timeout: timeout}, d.ProviderModelName)
		default:
			return nil, fmt.Errorf("unknown provider %q for model %s", d.Provider, d.Key)
		}
	}
}
