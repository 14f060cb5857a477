package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dshills/repohealth/internal/analyzer"
	"github.com/dshills/repohealth/internal/api"
	"github.com/dshills/repohealth/internal/chunker"
	"github.com/dshills/repohealth/internal/cleanup"
	"github.com/dshills/repohealth/internal/config"
	"github.com/dshills/repohealth/internal/embedder"
	"github.com/dshills/repohealth/internal/fetcher"
	"github.com/dshills/repohealth/internal/indexer"
	"github.com/dshills/repohealth/internal/logger"
	"github.com/dshills/repohealth/internal/store"
	"github.com/dshills/repohealth/internal/summarizer"
	"github.com/dshills/repohealth/internal/vectorstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "repohealth: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("REPOHEALTH_CONFIG"))
	if err != nil {
		return err
	}

	logger.Init(cfg.Log.Level)
	log := logger.Get()
	log.Info("repohealth server starting")

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening job database: %w", err)
	}
	jobs := store.NewJobRepository(db)
	reports := store.NewReportRepository(db)

	vectors, err := vectorstore.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("opening vector database: %w", err)
	}
	defer func() { _ = vectors.Close() }()

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedding.Provider,
		OllamaURL: cfg.Embedding.OllamaURL,
		Model:     cfg.Embedding.Model,
		CacheSize: cfg.Embedding.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer func() { _ = emb.Close() }()

	ctx := context.Background()
	sum, err := summarizer.NewGemini(ctx, summarizer.GeminiConfig{
		APIKeys:     cfg.LLM.APIKeys,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("creating summarizer: %w", err)
	}

	fetch := fetcher.New(
		cfg.Analysis.WorkDir,
		time.Duration(cfg.Analysis.CloneTimeoutSecs)*time.Second,
		cfg.Analysis.AllowedExtensions,
		cfg.Analysis.SkipDirectories,
	)

	splitter := chunker.NewSplitter(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	ix := indexer.New(splitter, emb, cfg.Analysis.ProgressInterval)
	svc := analyzer.New(jobs, reports, fetch, vectors, ix, sum, cfg.Analysis.MaxSamples)

	sched := cleanup.New(jobs, fetch, cfg.Analysis.WorkDir, cfg.Cleanup.Retention(), cfg.Cleanup.CheckInterval())
	sched.Start()

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(svc, sched)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infof("received signal %v, shutting down", sig)
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sched.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown incomplete")
	}

	sched.Stop()
	// Let an in-flight pipeline finish so its job is not stranded in
	// processing.
	svc.Wait()

	log.Info("server stopped")
	return nil
}
