// Package lane decides whether a lane is occupied from its raw status code.
package lane

import "fmt"

// OccupancyThreshold is the highest status code still reported as unoccupied.
const OccupancyThreshold = 3

// Color is a symbolic display color. Presentation layers decide how each
// symbol is encoded (hex, CSS class, terminal color).
type Color int

const (
	// NoLane marks an indicator slot with no lane behind it.
	NoLane Color = iota
	Green
	Red
)

var colorNames = map[Color]string{
	NoLane: "no_lane",
	Green:  "green",
	Red:    "red",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

func (c Color) MarshalText() ([]byte, error) {
	name, ok := colorNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown lane color %d", int(c))
	}
	return []byte(name), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	for color, name := range colorNames {
		if name == string(text) {
			*c = color
			return nil
		}
	}
	return fmt.Errorf("unknown lane color %q", text)
}

type Classification struct {
	Occupied bool
	Color    Color
}

// Classify maps any status code to an occupancy state. It never fails.
func Classify(status int) Classification {
	if status > OccupancyThreshold {
		return Classification{Occupied: true, Color: Red}
	}
	return Classification{Occupied: false, Color: Green}
}
