// Package app wires the server together and runs it until ctx is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"duckwatch/internal/config"
	"duckwatch/internal/db"
	"duckwatch/internal/httpapi"
	"duckwatch/internal/metrics"
	"duckwatch/internal/migrate"
	"duckwatch/internal/modules/pond"
	"duckwatch/internal/modules/pond/broadcast"
	"duckwatch/internal/modules/pond/views"
	"duckwatch/internal/mqtt"
)

const (
	shutdownTimeout    = 10 * time.Second
	mqttConnectTimeout = 5 * time.Second
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"dbDriver", cfg.DBDriver,
		"sqlitePath", cfg.SQLitePath,
		"dbMaxOpenConns", cfg.DBMaxOpenConns,
		"dbMaxIdleConns", cfg.DBMaxIdleConns,
		"dbConnMaxLifetime", cfg.DBConnMaxLifetime.String(),
		"dbLogSQL", cfg.SQLLoggingEnabled(),
		"dbBreakerTimeout", cfg.DBBreakerTimeout.String(),
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopicPrefix", cfg.MQTTTopicPrefix,
		"statusPublishInterval", cfg.StatusPublishInterval.String(),
	)

	// Templates first: a broken template set must stop startup before the
	// store is touched.
	if err := views.LoadTemplates(); err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()
	logger.Info("database connection successful")

	if _, err := migrate.Run(ctx, dbConn, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbConn, "duckwatch"),
	)
	recorder := metrics.NewRecorder(reg)

	pondService := pond.NewService(dbConn, cfg.DBBreakerTimeout, recorder, logger)
	mux := httpapi.NewMux(dbConn, cfg.StaticDir, recorder)
	pond.RegisterFeature(mux, pondService)
	srv := httpapi.NewServer(cfg, mux, logger, recorder)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.MQTTEnabled {
		publisher := mqtt.NewPublisher(cfg, recorder, logger)
		scheduler, err := broadcast.NewScheduler(
			broadcast.NewBroadcaster(pondService, publisher, logger),
			cfg.StatusPublishInterval,
			logger,
		)
		if err != nil {
			return err
		}

		g.Go(func() error {
			connectCtx, cancel := context.WithTimeout(gctx, mqttConnectTimeout)
			err := publisher.Connect(connectCtx)
			cancel()
			if err != nil {
				// Paho keeps retrying in the background; rounds fail until it connects.
				logger.Warn("mqtt connection failed (continuing, will retry)", "error", err)
			}
			if err := scheduler.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()

			if err := scheduler.Stop(); err != nil {
				logger.Error("broadcaster stop", "error", err)
			}
			publisher.Disconnect()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("http shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
