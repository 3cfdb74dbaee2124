// Entry point for the docsift HTTP service: document ingestion,
// background extraction, and redundancy analysis.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docsift/docsift/analyze"
	"github.com/docsift/docsift/config"
	"github.com/docsift/docsift/export"
	"github.com/docsift/docsift/extract"
	"github.com/docsift/docsift/filestore"
	"github.com/docsift/docsift/queue"
	"github.com/docsift/docsift/store"
	"github.com/docsift/docsift/varscan"
	"github.com/docsift/docsift/web"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", env("DOCSIFT_CONFIG", "docsift.yaml"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		logger.Error("open filestore", "error", err)
		os.Exit(1)
	}

	patterns, err := varscan.Compile(cfg.Patterns)
	if err != nil {
		logger.Error("compile variable patterns", "error", err)
		os.Exit(1)
	}

	pipeline := &queue.Pipeline{
		Store:     st,
		Files:     files,
		Extractor: extract.New(extract.Config{MaxFileSize: cfg.MaxUploadSize, Logger: logger}),
		Patterns:  patterns,
		Logger:    logger,
	}
	coord := queue.New(pipeline.Process, queue.Config{
		Workers:   cfg.Queue.Workers,
		BatchSize: cfg.Queue.BatchSize,
		Timeout:   time.Duration(cfg.Queue.Timeout),
		Logger:    logger,
	})

	// Documents left pending or mid-processing by a previous run go back
	// on the queue.
	requeued := 0
	for _, status := range []string{store.StatusPending, store.StatusProcessing} {
		docs, err := st.ListDocuments(ctx, store.ListFilter{Status: status})
		if err != nil {
			logger.Error("list unfinished documents", "error", err)
			os.Exit(1)
		}
		for _, d := range docs {
			requeued += coord.Enqueue(d.ID)
		}
	}
	if requeued > 0 {
		logger.Info("requeued unfinished documents", "count", requeued)
	}

	coord.Start(ctx)
	defer coord.Stop()

	engine := analyze.New(analyze.Config{
		Threshold:      cfg.Similarity.Threshold,
		MaxComparisons: cfg.Similarity.MaxComparisons,
		SampleSize:     cfg.Similarity.SampleSize,
		MinPhraseLen:   cfg.Similarity.MinPhraseLen,
		MaxPhrases:     cfg.Similarity.MaxPhrases,
		Logger:         logger,
	})
	exports := export.New(st, engine, logger)
	server := web.New(cfg, st, files, coord, exports, patterns, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	logger.Info("docsift listening", "addr", cfg.Listen, "db", cfg.DBPath, "uploads", cfg.UploadDir)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server", "error", err)
		os.Exit(1)
	}
	logger.Info("docsift stopped")
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
