// Package broadcast pushes every pond's status view to the MQTT broker on a
// fixed schedule.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"duckwatch/internal/modules/pond/status"
	"duckwatch/internal/modules/pond/types"
)

type StatusSource interface {
	Ponds(ctx context.Context) ([]types.PondSummary, error)
	Status(ctx context.Context, pondID string) (status.View, error)
}

type StatusPublisher interface {
	PublishStatus(pondID string, v any) error
}

type Broadcaster struct {
	source    StatusSource
	publisher StatusPublisher
	logger    *slog.Logger
}

func NewBroadcaster(source StatusSource, publisher StatusPublisher, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{source: source, publisher: publisher, logger: logger}
}

// PublishRound publishes the current view of every pond and returns how many
// were published. A pond removed between listing and building is skipped.
// A store failure aborts the round; publish failures are collected and the
// round carries on with the next pond.
func (b *Broadcaster) PublishRound(ctx context.Context) (int, error) {
	ponds, err := b.source.Ponds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ponds: %w", err)
	}

	var (
		published int
		errs      []error
	)
	for _, p := range ponds {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		view, err := b.source.Status(ctx, p.ID)
		switch {
		case errors.Is(err, status.ErrNotFound):
			b.logger.Debug("broadcast: pond vanished, skipping", "pond_id", p.ID)
			continue
		case err != nil:
			return published, fmt.Errorf("build status for pond %q: %w", p.ID, err)
		}

		if err := b.publisher.PublishStatus(p.ID, view); err != nil {
			b.logger.Warn("broadcast: publish failed", "pond_id", p.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		published++
	}
	return published, errors.Join(errs...)
}
