package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/geoip"
	"studio/internal/middleware"
	"studio/internal/persist"
	"studio/internal/pipeline"
	"studio/internal/poller"
	"studio/internal/providers/codegen"
	"studio/internal/providers/fal"
	"studio/internal/providers/kie"
	"studio/internal/providers/modal"
	"studio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	if err := infra.EnsureSchema(ctx, dbpool, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	var store storage.ObjectStore
	if cfg.StorageBackend == "s3" {
		store, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		})
	} else {
		store, err = storage.NewFileStore(cfg.StorageBasePath, cfg.StorageBaseURL)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	falClient, err := fal.NewClient(fal.Options{
		APIKey:  cfg.FalAPIKey,
		BaseURL: cfg.FalBaseURL,
		Model:   cfg.FalModel,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize fal client")
	}
	kieClient, err := kie.NewClient(kie.Options{
		APIKey:  cfg.KieAPIKey,
		BaseURL: cfg.KieBaseURL,
		Model:   cfg.KieModel,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize kie client")
	}
	generator, err := codegen.NewGenerator(codegen.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize code generator")
	}
	executor, err := modal.NewExecutor(modal.Options{
		Endpoint: cfg.ModalEndpoint,
		Token:    cfg.ModalToken,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize sandbox executor")
	}

	results := repo.NewResultRepository(dbpool)
	library := repo.NewLibraryRepository(dbpool)
	coordinator := persist.NewCoordinator(results, library, logger)

	shared := pipeline.Shared{
		Store:       store,
		Coordinator: coordinator,
		Logger:      logger,
		URLTTL:      cfg.SignedURLTTL,
	}
	app := &handlers.App{
		Results: results,
		Library: library,
		Store:   store,
		Charts: &pipeline.Charts{
			Shared:    shared,
			Generator: generator,
			Executor:  executor,
			Enhancer:  falClient,
			Download:  falClient,
		},
		Images: &pipeline.Images{
			Shared:   shared,
			Provider: falClient,
			Download: falClient,
		},
		Videos: &pipeline.Videos{
			Shared:   shared,
			Provider: kieClient,
			Status:   kieClient.Status,
			Download: kieClient,
			Poller:   poller.New(cfg.PollInterval, cfg.PollTimeout, logger),
		},
		Logger: logger,
		URLTTL: cfg.SignedURLTTL,
	}

	var lookup middleware.CountryLookup
	if geodb, err := geoip.Open(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if geodb != nil {
		defer geodb.Close()
		lookup = geodb.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   lookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
