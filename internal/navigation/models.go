package navigation

type Instruction struct {
	Text           string `json:"text"`
	DistanceToNext int    `json:"distance_to_next"`
}

type Guide struct {
	Summary          string        `json:"summary"`
	TotalDistanceKm  float64       `json:"total_distance_km"`
	TotalTimeMinutes float64       `json:"total_time_minutes"`
	Instructions     []Instruction `json:"instructions"`
}

type GuideRouteRequest struct {
	RouteID string `json:"route_id" validate:"required"`
}

type GuideDestinationRequest struct {
	StartLat       float64 `json:"start_lat" validate:"gte=-90,lte=90"`
	StartLon       float64 `json:"start_lon" validate:"gte=-180,lte=180"`
	DestinationLat float64 `json:"destination_lat" validate:"gte=-90,lte=90"`
	DestinationLon float64 `json:"destination_lon" validate:"gte=-180,lte=180"`
}
