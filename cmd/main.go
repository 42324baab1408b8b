package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appconfig "github.com/fedutinova/mcqgen/internal/config"
	"github.com/fedutinova/mcqgen/internal/extract"
	"github.com/fedutinova/mcqgen/internal/gpt"
	"github.com/fedutinova/mcqgen/internal/mcqgen"
	"github.com/fedutinova/mcqgen/internal/retention"
	"github.com/fedutinova/mcqgen/internal/server"
	"github.com/fedutinova/mcqgen/internal/storage"
	httpapi "github.com/fedutinova/mcqgen/internal/transport/http"
)

func main() {
	cfg := appconfig.Load()
	setupLogger(cfg.Reload)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.Info("starting mcqgen", "addr", cfg.Addr(), "model", cfg.OpenRouterModel, "dev", cfg.Reload)

	staging, err := storage.NewStaging(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		slog.Error("failed to initialize staging area", "err", err)
		os.Exit(1)
	}

	results, err := storage.NewLocalStorage(cfg.ResultsDir, cfg.ResultsURL)
	if err != nil {
		slog.Error("failed to initialize storage", "err", err)
		os.Exit(1)
	}
	slog.Info("storage initialized", "uploads", cfg.UploadDir, "results", cfg.ResultsDir)

	gptClient := gpt.NewClient(gpt.Options{
		APIKey:      cfg.OpenRouterAPIKey,
		BaseURL:     cfg.OpenRouterBaseURL,
		Model:       cfg.OpenRouterModel,
		SiteURL:     cfg.SiteURL,
		SiteName:    cfg.SiteName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.UpstreamTimeout,
	})
	if !gptClient.Configured() {
		slog.Warn("OPENROUTER_API_KEY is not set, generation requests will fail")
	}

	sweepTargets := []retention.Target{
		{Dir: cfg.UploadDir, MaxAge: cfg.UploadRetention},
		{Dir: cfg.ResultsDir, MaxAge: cfg.ResultRetention},
	}
	svc := mcqgen.NewService(extract.New(), gptClient, results, staging, sweepTargets...)

	handlers := &httpapi.Handlers{
		Service:  svc,
		Results:  results,
		Upstream: gptClient,
		Config:   cfg,
	}
	r := server.NewRouter(handlers)

	janitor := retention.NewJanitor(cfg.SweepSchedule, sweepTargets...)
	if err := janitor.Start(); err != nil {
		slog.Error("failed to start retention janitor", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 60*time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	slog.Info("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	janitor.Stop()
}

// setupLogger uses readable text output at debug level in development and
// JSON otherwise.
func setupLogger(dev bool) {
	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
