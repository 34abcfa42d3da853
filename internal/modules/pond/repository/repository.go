package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"duckwatch/internal/modules/pond/types"
)

//go:embed sql/get-pond.sql
var getPondSQL string

//go:embed sql/get-lanes.sql
var getLanesSQL string

//go:embed sql/list-ponds.sql
var listPondsSQL string

// PondRepository is the sqlite-backed read side of the pond store. It
// satisfies status.DataPort.
type PondRepository interface {
	GetPond(ctx context.Context, id string) (*types.PondRecord, error)
	GetLanes(ctx context.Context, pondID string) ([]types.LaneRecord, error)
	ListPonds(ctx context.Context) ([]types.PondSummary, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) PondRepository {
	return &repositoryImpl{db: db}
}

// GetPond returns nil and no error when the pond does not exist.
func (r *repositoryImpl) GetPond(ctx context.Context, id string) (*types.PondRecord, error) {
	var p types.PondRecord
	err := r.db.QueryRowContext(ctx, getPondSQL, id).Scan(
		&p.ID,
		&p.SurfaceH2OTemp,
		&p.SubH2OTemp,
		&p.ExteriorTemp,
		&p.Humidity,
		&p.Windy,
		&p.UVIndex,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pond: %w", err)
	}
	return &p, nil
}

func (r *repositoryImpl) GetLanes(ctx context.Context, pondID string) ([]types.LaneRecord, error) {
	rows, err := r.db.QueryContext(ctx, getLanesSQL, pondID)
	if err != nil {
		return nil, fmt.Errorf("query lanes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close lanes rows", "error", err)
		}
	}()

	out := []types.LaneRecord{}
	for rows.Next() {
		var l types.LaneRecord
		if err := rows.Scan(&l.ID, &l.PondID, &l.Status, &l.Depth, &l.Length); err != nil {
			return nil, fmt.Errorf("scan lane: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) ListPonds(ctx context.Context) ([]types.PondSummary, error) {
	rows, err := r.db.QueryContext(ctx, listPondsSQL)
	if err != nil {
		return nil, fmt.Errorf("query ponds: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close ponds rows", "error", err)
		}
	}()

	out := []types.PondSummary{}
	for rows.Next() {
		var s types.PondSummary
		if err := rows.Scan(&s.ID, &s.LaneCount); err != nil {
			return nil, fmt.Errorf("scan pond: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
