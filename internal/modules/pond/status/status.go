// Package status assembles the per-pond status view from the pond and lane
// records returned by a DataPort.
package status

import (
	"context"
	"errors"
	"fmt"

	"duckwatch/internal/modules/pond/lane"
	"duckwatch/internal/modules/pond/types"
	"duckwatch/internal/modules/pond/units"
)

// AggregateSlots is the number of lane indicators shown under the lane tables.
const AggregateSlots = 2

var (
	ErrNotFound            = errors.New("pond not found")
	ErrDataPortUnavailable = errors.New("data port unavailable")
)

// DataPort is the read side of the pond store.
//
// GetPond returns (nil, nil) when no pond matches id. GetLanes returns the
// lanes in the store's retrieval order and an empty slice when there are none.
type DataPort interface {
	GetPond(ctx context.Context, id string) (*types.PondRecord, error)
	GetLanes(ctx context.Context, pondID string) ([]types.LaneRecord, error)
}

type LaneView struct {
	ID       string     `json:"id"`
	Occupied bool       `json:"occupied"`
	Color    lane.Color `json:"color"`
	DepthIn  float64    `json:"depthIn"`
	LengthIn float64    `json:"lengthIn"`
}

type View struct {
	PondID        string                     `json:"pondId"`
	SurfaceTempF  float64                    `json:"surfaceTempF"`
	SubTempF      float64                    `json:"subTempF"`
	ExteriorTempF float64                    `json:"exteriorTempF"`
	HumidityPct   int                        `json:"humidityPct"`
	Windy         bool                       `json:"windy"`
	UVIndex       float64                    `json:"uvIndex"`
	Lanes         []LaneView                 `json:"lanes"`
	Aggregate     [AggregateSlots]lane.Color `json:"aggregate"`
}

// BuildView looks up one pond and its lanes and converts them for display.
// An unknown id yields ErrNotFound without querying lanes. Any port failure
// yields ErrDataPortUnavailable wrapping the cause, never a partial view.
func BuildView(ctx context.Context, pondID string, port DataPort) (View, error) {
	pond, err := port.GetPond(ctx, pondID)
	if err != nil {
		return View{}, fmt.Errorf("%w: get pond %q: %w", ErrDataPortUnavailable, pondID, err)
	}
	if pond == nil {
		return View{}, fmt.Errorf("%w: %q", ErrNotFound, pondID)
	}

	view := View{
		PondID:        pond.ID,
		SurfaceTempF:  units.TemperatureF(pond.SurfaceH2OTemp),
		SubTempF:      units.TemperatureF(pond.SubH2OTemp),
		ExteriorTempF: units.TemperatureF(pond.ExteriorTemp),
		HumidityPct:   units.HumidityPercent(pond.Humidity),
		Windy:         pond.Windy > 0,
		UVIndex:       units.UVIndex(pond.UVIndex),
	}

	lanes, err := port.GetLanes(ctx, pondID)
	if err != nil {
		return View{}, fmt.Errorf("%w: get lanes for pond %q: %w", ErrDataPortUnavailable, pondID, err)
	}

	view.Lanes = make([]LaneView, 0, len(lanes))
	for _, l := range lanes {
		c := lane.Classify(l.Status)
		view.Lanes = append(view.Lanes, LaneView{
			ID:       l.ID,
			Occupied: c.Occupied,
			Color:    c.Color,
			DepthIn:  units.Length(l.Depth),
			LengthIn: units.Length(l.Length),
		})
	}

	for i := range view.Aggregate {
		view.Aggregate[i] = slotColor(view.Lanes, i)
	}

	return view, nil
}

// slotColor returns the color of the lane at index i, or lane.NoLane when the
// pond has fewer lanes than that.
func slotColor(lanes []LaneView, i int) lane.Color {
	if i < 0 || i >= len(lanes) {
		return lane.NoLane
	}
	return lanes[i].Color
}
