package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"duckwatch/internal/metrics"
	"duckwatch/internal/modules/pond/repository"
	"duckwatch/internal/modules/pond/status"
	"duckwatch/internal/modules/pond/types"
)

// Service is the entry point shared by the HTTP controller and the MQTT
// broadcaster. It holds no per-request state.
type Service struct {
	repository repository.PondRepository
	recorder   *metrics.Recorder
	logger     *slog.Logger
}

func NewService(repository repository.PondRepository, recorder *metrics.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, recorder: recorder, logger: logger}
}

// Status builds the status view for one pond. Errors match status.ErrNotFound
// or status.ErrDataPortUnavailable.
func (s *Service) Status(ctx context.Context, pondID string) (status.View, error) {
	start := time.Now()
	view, err := status.BuildView(ctx, pondID, s.repository)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.recorder.ObserveStatusBuild(metrics.OutcomeOK, elapsed)
		s.logger.Debug("pond status built",
			"pond_id", pondID,
			"lanes", len(view.Lanes),
			"duration_ms", elapsed.Milliseconds(),
		)
	case errors.Is(err, status.ErrNotFound):
		s.recorder.ObserveStatusBuild(metrics.OutcomeNotFound, elapsed)
		s.logger.Debug("pond not found", "pond_id", pondID)
	default:
		s.recorder.ObserveStatusBuild(metrics.OutcomeUnavailable, elapsed)
		s.logger.Error("pond status failed", "pond_id", pondID, "error", err)
	}
	return view, err
}

// Ponds lists every pond with its lane count. A store failure is reported as
// status.ErrDataPortUnavailable.
func (s *Service) Ponds(ctx context.Context) ([]types.PondSummary, error) {
	ponds, err := s.repository.ListPonds(ctx)
	if err != nil {
		s.logger.Error("list ponds failed", "error", err)
		return nil, fmt.Errorf("%w: list ponds: %w", status.ErrDataPortUnavailable, err)
	}
	return ponds, nil
}
