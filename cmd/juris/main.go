package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/veredito/juris/internal/config"
	"github.com/veredito/juris/internal/db"
	logpkg "github.com/veredito/juris/internal/logger"
	"github.com/veredito/juris/internal/metrics"
	passagerepo "github.com/veredito/juris/internal/repository/passage"
	chiTransport "github.com/veredito/juris/internal/transport/chi"
	openaiTransport "github.com/veredito/juris/internal/transport/openai"
	"github.com/veredito/juris/internal/trace"
	healthuc "github.com/veredito/juris/internal/usecase/health"
	ingestuc "github.com/veredito/juris/internal/usecase/ingest"
	orchestrateuc "github.com/veredito/juris/internal/usecase/orchestrate"
	planuc "github.com/veredito/juris/internal/usecase/plan"
	retrieveuc "github.com/veredito/juris/internal/usecase/retrieve"
	"github.com/veredito/juris/internal/domain/metadata"
	"github.com/veredito/juris/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting juris API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	corpusSchema, err := cfg.BuildSchema()
	if err != nil {
		logger.Fatal("Invalid attribute schema", zap.Error(err))
	}

	store, err := db.NewStore(db.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index store not ready", zap.Error(err))
	}
	logger.Info("Connected to index store")

	// Passage repository and index bootstrap
	repo := passagerepo.NewRepo(store, corpusSchema, passagerepo.Config{
		IndexName:       cfg.Index.Name,
		KeyPrefix:       cfg.Index.KeyPrefix,
		VectorDim:       cfg.Index.VectorDim,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure passage index", zap.Error(err))
	}
	logger.Info("Passage index ready", zap.String("index", cfg.Index.Name))

	// Model providers — three OpenAI-compatible endpoints
	embedder := openaiTransport.NewEmbedder(openaiTransport.EmbedderConfig{
		Provider:   providerConfig(cfg.Providers.Embedding),
		Dimensions: cfg.Index.VectorDim,
		Logger:     logger,
	})
	extractor := openaiTransport.NewExtractor(providerConfig(cfg.Providers.Extraction), logger)
	generator := openaiTransport.NewGenerator(providerConfig(cfg.Providers.Generation), logger)
	logger.Info("Model providers created",
		zap.String("embedding_model", cfg.Providers.Embedding.Model),
		zap.String("extraction_model", cfg.Providers.Extraction.Model),
		zap.String("generation_model", cfg.Providers.Generation.Model),
	)

	// Trace delivery — spans are logged and counted when dropped
	tracer := trace.New(trace.NewZapSink(logger), cfg.Trace.BufferSize, logger, func() {
		metrics.TraceEventsDroppedTotal.Inc()
	})
	defer tracer.Close()

	// Use case services
	normalizer := metadata.NewNormalizer(corpusSchema, cfg.Normalize.CenturyPivot)
	planSvc := planuc.New(extractor, corpusSchema, cfg.Retrieval.TopK, logger)
	retrieveSvc := retrieveuc.New(repo, embedder)
	ingestSvc := ingestuc.New(normalizer, repo, embedder, logger)
	orchestrateSvc := orchestrateuc.New(planSvc, retrieveSvc, generator, tracer, orchestrateuc.Config{
		PlanningTimeout:   time.Duration(cfg.Retrieval.PlanningTimeoutSec) * time.Second,
		RetrievalTimeout:  time.Duration(cfg.Retrieval.RetrievalTimeoutSec) * time.Second,
		GenerationTimeout: time.Duration(cfg.Retrieval.GenerationTimeoutSec) * time.Second,
	}, logger)
	healthSvc := healthuc.New(store, embedder)

	server := chiTransport.NewServer(orchestrateSvc, ingestSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func providerConfig(pc config.ProviderConfig) openaiTransport.ProviderConfig {
	return openaiTransport.ProviderConfig{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Model:   pc.Model,
	}
}
