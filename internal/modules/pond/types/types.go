package types

// PondRecord is one row of the pond table. Temperatures and the UV index are
// stored in hundredths, humidity in 1/1024ths of a percentage point.
type PondRecord struct {
	ID             string
	SurfaceH2OTemp int
	SubH2OTemp     int
	ExteriorTemp   int
	Humidity       int
	Windy          int
	UVIndex        int
}

// LaneRecord is one row of the lilypad table. Depth and length are stored in
// hundredths of an inch.
type LaneRecord struct {
	ID     string
	PondID string
	Status int
	Depth  int
	Length int
}

type PondSummary struct {
	ID        string `json:"id"`
	LaneCount int    `json:"laneCount"`
}
