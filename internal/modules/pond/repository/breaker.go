package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"duckwatch/internal/modules/pond/types"
)

const breakerFailureThreshold = 5

// guardedRepository fails fast once the store has failed repeatedly, so a
// dead database surfaces as an immediate error instead of a pile of slow
// requests. A missing pond is a successful call.
type guardedRepository struct {
	next    PondRepository
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedRepository wraps next in a circuit breaker that opens after
// consecutive failures and probes again after timeout.
func NewGuardedRepository(next PondRepository, timeout time.Duration, logger *slog.Logger) PondRepository {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pond-store",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &guardedRepository{next: next, breaker: cb}
}

func (g *guardedRepository) GetPond(ctx context.Context, id string) (*types.PondRecord, error) {
	var out *types.PondRecord
	err := g.execute(ctx, func() error {
		var err error
		out, err = g.next.GetPond(ctx, id)
		return err
	})
	return out, err
}

func (g *guardedRepository) GetLanes(ctx context.Context, pondID string) ([]types.LaneRecord, error) {
	var out []types.LaneRecord
	err := g.execute(ctx, func() error {
		var err error
		out, err = g.next.GetLanes(ctx, pondID)
		return err
	})
	return out, err
}

func (g *guardedRepository) ListPonds(ctx context.Context) ([]types.PondSummary, error) {
	var out []types.PondSummary
	err := g.execute(ctx, func() error {
		var err error
		out, err = g.next.ListPonds(ctx)
		return err
	})
	return out, err
}

// execute runs fn through the breaker. Cancellation by the caller is passed
// through without counting against the store.
func (g *guardedRepository) execute(ctx context.Context, fn func() error) error {
	var callerErr error
	_, err := g.breaker.Execute(func() (interface{}, error) {
		err := fn()
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			callerErr = err
			return nil, nil
		}
		return nil, err
	})
	if callerErr != nil {
		return callerErr
	}
	return err
}
