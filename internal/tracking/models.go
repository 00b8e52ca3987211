package tracking

import (
	"time"

	"backend-pedalhub/internal/shared/geo"
)

// Fix is one raw position sample sent by the rider's device.
type Fix struct {
	Lat float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64  `json:"lon" validate:"gte=-180,lte=180"`
	Ele *float64 `json:"ele,omitempty"`
}

// CorrectedPoint is a snapped position stamped with the local capture time.
type CorrectedPoint struct {
	Lat  float64
	Lon  float64
	Ele  *float64
	Time time.Time
}

func (p CorrectedPoint) Point() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

type LiveStats struct {
	Distance     float64 `json:"distance"`
	CurrentSpeed float64 `json:"current_speed"`
	AverageSpeed float64 `json:"average_speed"`
	Kcal         float64 `json:"kcal"`
}

// FinalReport is the immutable end-of-ride snapshot. Distances and elevations
// are whole meters, times whole seconds.
type FinalReport struct {
	HealthTime        int     `json:"health_time"`
	HalfTime          int     `json:"half_time"`
	Distance          int     `json:"distance"`
	Kcal              int     `json:"kcal"`
	AverageSpeed      float64 `json:"average_speed"`
	HighestSpeed      float64 `json:"highest_speed"`
	AveragePace       float64 `json:"average_pace"`
	HighestPace       float64 `json:"highest_pace"`
	CumulativeAscent  int     `json:"cumulative_high"`
	CumulativeDescent int     `json:"cumulative_low"`
	HighestElevation  int     `json:"highest_high"`
	LowestElevation   int     `json:"lowest_high"`
	IncreaseSlope     float64 `json:"increase_slope"`
	DecreaseSlope     float64 `json:"decrease_slope"`
}

// Geometry is the corrected path written to the route record.
type Geometry struct {
	Start  geo.Point   `json:"start_point"`
	End    geo.Point   `json:"end_point"`
	Points []geo.Point `json:"points"`
}
