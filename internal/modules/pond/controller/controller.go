package controller

import (
	"context"
	"net/http"

	"duckwatch/internal/modules/pond/status"
	"duckwatch/internal/modules/pond/types"
)

// StatusService is the part of service.Service the controller needs.
type StatusService interface {
	Status(ctx context.Context, pondID string) (status.View, error)
	Ponds(ctx context.Context) ([]types.PondSummary, error)
}

type PondController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type pondControllerImpl struct {
	service StatusService
}

func NewPondController(service StatusService) PondController {
	return &pondControllerImpl{service: service}
}

func (c *pondControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /today", c.handleToday)
	mux.HandleFunc("GET /api/v1/ponds", c.handlePonds)
	mux.HandleFunc("GET /api/v1/ponds/{id}/status", c.handleStatus)
}
