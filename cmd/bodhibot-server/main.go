// Package main provides the HTTP/WebSocket server for bodhibot.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bodhibot/bodhibot-go/internal/config"
	"github.com/bodhibot/bodhibot-go/internal/db"
	"github.com/bodhibot/bodhibot-go/internal/llm"
	"github.com/bodhibot/bodhibot-go/internal/metrics"
	"github.com/bodhibot/bodhibot-go/internal/server"
	"github.com/bodhibot/bodhibot-go/internal/service"
)

const version = "0.1.0"

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	catalogPath := flag.String("catalog", "", "quick-reply catalog override (YAML)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg)
	defer cleanup()

	logger.Info("bodhibot-server starting",
		"version", version,
		"addr", cfg.ListenAddr,
		"surrealdb_url", cfg.SurrealDBURL,
		"llm_provider", cfg.LLMProvider,
		"embed_model", cfg.EmbedModel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	dbClient, err := db.NewClient(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(context.Background())
	}()

	if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("BODHIBOT_WIPE_DB") == "true" {
		wipeCtx, wipeCancel := context.WithTimeout(ctx, 30*time.Second)
		err := dbClient.WipeData(wipeCtx)
		wipeCancel()
		if err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped")
	}

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	logger.Info("embedder initialized", "model", embedder.Model(), "dimension", embedder.Dimension())

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	model, err := llm.NewModel(initCtx, cfg)
	initCancel()
	if err != nil {
		logger.Error("failed to create model", "error", err)
		os.Exit(1)
	}
	logger.Info("model initialized", "model", model.Model())

	catalog := service.DefaultCatalog()
	if *catalogPath != "" {
		catalog, err = service.LoadCatalog(*catalogPath)
		if err != nil {
			logger.Error("failed to load catalog", "error", err)
			os.Exit(1)
		}
	}

	collector := metrics.NewCollector()
	suggester := service.NewSuggester(catalog, cfg)
	orch, err := service.NewOrchestrator(
		service.NewClassifier(model),
		service.NewRetriever(embedder, dbClient, collector, cfg),
		suggester,
		dbClient,
		collector,
		cfg,
	)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg.ListenAddr, orch, suggester, collector, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
