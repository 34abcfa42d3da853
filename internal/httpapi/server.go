package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"duckwatch/internal/config"
	"duckwatch/internal/metrics"
)

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, recorder *metrics.Recorder) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           Wrap(mux, logger, recorder),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
