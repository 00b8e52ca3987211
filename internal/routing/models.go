package routing

import "backend-pedalhub/internal/shared/geo"

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type traceRequest struct {
	Shape      []location `json:"shape"`
	Costing    string     `json:"costing"`
	ShapeMatch string     `json:"shape_match"`
}

type directionsOptions struct {
	Units string `json:"units"`
}

type routeRequest struct {
	Locations         []location        `json:"locations"`
	Costing           string            `json:"costing"`
	DirectionsOptions directionsOptions `json:"directions_options"`
}

// Summary lengths are kilometers, times seconds.
type Summary struct {
	Length float64 `json:"length"`
	Time   float64 `json:"time"`
}

type Maneuver struct {
	Type        int      `json:"type"`
	Instruction string   `json:"instruction"`
	Length      float64  `json:"length"`
	Time        float64  `json:"time"`
	StreetNames []string `json:"street_names,omitempty"`
}

type Leg struct {
	Maneuvers []Maneuver `json:"maneuvers"`
	Summary   Summary    `json:"summary"`
	Shape     string     `json:"shape"`
}

type Trip struct {
	Legs    []Leg   `json:"legs"`
	Summary Summary `json:"summary"`
}

type response struct {
	Trip Trip `json:"trip"`
}

// Arrival maneuver types: destination, destination on the right, destination on the left.
const (
	ManeuverDestination      = 4
	ManeuverDestinationRight = 5
	ManeuverDestinationLeft  = 6
)

func IsArrival(typ int) bool {
	return typ == ManeuverDestination || typ == ManeuverDestinationRight || typ == ManeuverDestinationLeft
}

func toLocations(points []geo.Point) []location {
	out := make([]location, len(points))
	for i, p := range points {
		out[i] = location{Lat: p.Lat, Lon: p.Lon}
	}
	return out
}
