package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"posterlab/internal/assets"
	"posterlab/internal/credits"
	"posterlab/internal/generation"
	"posterlab/internal/http/handlers"
	"posterlab/internal/http/httpapi"
	"posterlab/internal/imagegen"
	"posterlab/internal/infra"
	"posterlab/internal/infra/credentials"
	"posterlab/internal/infra/geoip"
	"posterlab/internal/middleware"
	"posterlab/internal/promptbuild"
	"posterlab/internal/storage"
	"posterlab/internal/templates"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		bootLogger := infra.NewLogger("production")
		bootLogger.Fatal().Err(err).Msg("loading configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to database")
	}
	defer pool.Close()
	sqlRunner := infra.NewSQLRunner(pool, logger)

	store, err := newObjectStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing object storage")
	}

	apiKey := cfg.ImageGenAPIKey
	if apiKey == "" {
		// Operator-managed key in the database beats an unset env var.
		if stored, err := credentials.NewStore(sqlRunner).ImageGenAPIKey(ctx); err == nil {
			apiKey = stored
		} else {
			logger.Warn().Err(err).Msg("no image generation api key configured")
		}
	}
	client := imagegen.NewClient(imagegen.Options{
		BaseURL: cfg.ImageGenBaseURL,
		APIKey:  apiKey,
	})

	orchestrator := generation.NewOrchestrator(generation.Options{
		Gate:     credits.NewGate(sqlRunner, logger),
		Selector: templates.NewSelector(sqlRunner, logger),
		NewResolver: func(requestID, origin string) generation.AssetResolver {
			return assets.NewResolver(assets.Options{
				Store:           store,
				Logger:          logger,
				TempBucket:      cfg.TempBucket,
				Origin:          origin,
				TemplateBaseURL: cfg.TemplateBaseURL,
				MaxBytes:        cfg.MaxAssetBytes,
				RequestID:       requestID,
			})
		},
		Prompts:         promptbuild.NewBuilder(cfg.PromptCeilingChars),
		Provider:        client,
		Waiter:          imagegen.NewPoller(client, logger),
		Logger:          logger,
		TemplateBaseURL: cfg.TemplateBaseURL,
	})

	app := &handlers.App{
		SQL:          sqlRunner,
		Logger:       logger,
		Config:       cfg,
		Orchestrator: orchestrator,
	}

	var lookup middleware.CountryLookup
	countryResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale falls back to headers")
	} else if countryResolver != nil {
		lookup = countryResolver.CountryCode
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, lookup))

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newObjectStore prefers Supabase storage and falls back to a local directory
// for development setups without a project.
func newObjectStore(cfg *infra.Config) (storage.ObjectStore, error) {
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		return storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	}
	base := os.Getenv("STORAGE_LOCAL_PATH")
	if base == "" {
		base = "./data/storage"
	}
	baseURL := os.Getenv("STORAGE_LOCAL_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port + "/storage"
	}
	return storage.NewFileStore(base, baseURL)
}
