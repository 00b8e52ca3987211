package navigation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"backend-pedalhub/internal/routing"
	"backend-pedalhub/internal/shared/geo"
)

// maxLocations bounds the waypoints sent for a stored path.
const maxLocations = 20

var ErrInvalidLocations = errors.New("at least two valid locations required")

type Router interface {
	Route(ctx context.Context, locations []geo.Point, profile string) (routing.Trip, error)
}

type RouteSource interface {
	RoutePoints(ctx context.Context, routeID string) ([]geo.Point, error)
}

type Service struct {
	router     Router
	routes     RouteSource
	translator *Translator
}

func NewService(router Router, routes RouteSource, translator *Translator) *Service {
	return &Service{router: router, routes: routes, translator: translator}
}

// Guide requests directions through the ordered locations and turns the
// maneuvers into localized instructions.
func (s *Service) Guide(ctx context.Context, locations []geo.Point, profile string) (Guide, error) {
	if len(locations) < 2 {
		return Guide{}, ErrInvalidLocations
	}
	for _, p := range locations {
		if !geo.ValidLatLon(p.Lat, p.Lon) {
			return Guide{}, ErrInvalidLocations
		}
	}

	trip, err := s.router.Route(ctx, locations, profile)
	if err != nil {
		return Guide{}, err
	}
	return s.build(trip), nil
}

// GuideRoute guides along a stored path.
func (s *Service) GuideRoute(ctx context.Context, routeID string) (Guide, error) {
	points, err := s.routes.RoutePoints(ctx, routeID)
	if err != nil {
		return Guide{}, err
	}
	return s.Guide(ctx, sample(points, maxLocations), "")
}

func (s *Service) GuideDestination(ctx context.Context, start, destination geo.Point) (Guide, error) {
	return s.Guide(ctx, []geo.Point{start, destination}, "")
}

func (s *Service) build(trip routing.Trip) Guide {
	var totalKm, totalSec float64
	var instructions []Instruction

	for li, leg := range trip.Legs {
		totalKm += leg.Summary.Length
		totalSec += leg.Summary.Time

		for mi, m := range leg.Maneuvers {
			text := s.translator.Translate(m.Instruction)
			if routing.IsArrival(m.Type) {
				// every leg ends in an arrival; only the trip's last one is real
				if li == len(trip.Legs)-1 && mi == len(leg.Maneuvers)-1 {
					instructions = append(instructions, Instruction{Text: text})
				}
				continue
			}
			meters := int(math.Round(m.Length * 1000))
			instructions = append(instructions, Instruction{
				Text:           fmt.Sprintf("%dm ahead, %s", meters, text),
				DistanceToNext: meters,
			})
		}
	}

	km := math.Round(totalKm*100) / 100
	minutes := math.Round(totalSec/60*10) / 10
	return Guide{
		Summary:          fmt.Sprintf("total distance: %.2f km, estimated time: %.1f min", km, minutes),
		TotalDistanceKm:  km,
		TotalTimeMinutes: minutes,
		Instructions:     Collapse(instructions, s.translator.Arrival()),
	}
}

// Collapse drops consecutive duplicates and keeps a single arrival message at the end.
func Collapse(in []Instruction, arrival string) []Instruction {
	out := make([]Instruction, 0, len(in))
	arrivals := 0
	for _, ins := range in {
		if len(out) > 0 && out[len(out)-1].Text == ins.Text {
			continue
		}
		if ins.Text == arrival {
			arrivals++
		}
		out = append(out, ins)
	}
	if arrivals <= 1 {
		return out
	}

	kept := out[:0]
	for _, ins := range out {
		if ins.Text != arrival {
			kept = append(kept, ins)
		}
	}
	return append(kept, Instruction{Text: arrival})
}

// sample keeps the endpoints and evenly spaced interior points.
func sample(points []geo.Point, limit int) []geo.Point {
	if len(points) <= limit {
		return points
	}
	out := make([]geo.Point, 0, limit)
	step := float64(len(points)-1) / float64(limit-1)
	for i := 0; i < limit-1; i++ {
		out = append(out, points[int(math.Round(float64(i)*step))])
	}
	return append(out, points[len(points)-1])
}
