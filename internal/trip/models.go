package trip

import (
	"time"

	"backend-pedalhub/internal/shared/geo"
)

type Route struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	UserID     string      `json:"user_id"`
	StartPoint *geo.Point  `json:"start_point"`
	EndPoint   *geo.Point  `json:"end_point"`
	Points     []geo.Point `json:"points_json"`
	CreatedAt  time.Time   `json:"created_at"`
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

type Summary struct {
	RoutesTaken       int     `json:"routes_taken_count"`
	TotalActivityTime string  `json:"total_activity_time_formatted"`
	TotalDistanceKm   float64 `json:"total_activity_distance_km"`
	TotalKcal         int     `json:"total_kcal"`
}
