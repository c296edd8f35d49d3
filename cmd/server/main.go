package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/finsnap/internal/config"
	"github.com/AngelCh415/finsnap/internal/httpx"
	"github.com/AngelCh415/finsnap/internal/ingest"
	"github.com/AngelCh415/finsnap/internal/metrics"
	"github.com/AngelCh415/finsnap/internal/store"
	"github.com/AngelCh415/finsnap/internal/telemetry"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	tm := telemetry.New(prometheus.NewRegistry())
	fetcher := ingest.NewFetcher(ingest.NewHTTPClient(cfg.HTTPTimeout), cfg.FetchRetries)
	loader := ingest.NewLoader(fetcher, store.NewMemoryStore(), logger, tm, cfg.Sources)
	mSvc := metrics.NewService(loader, tm)

	r := httpx.NewRouter(logger, loader, mSvc, tm)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	for _, s := range cfg.Sources {
		if s.URL == "" {
			logger.Warn("source has no url", slog.String("source", string(s.ID)))
		}
	}
	logger.Info("starting server", slog.String("port", cfg.Port), slog.Int("sources", len(cfg.Sources)))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
