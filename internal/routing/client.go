package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"backend-pedalhub/internal/metrics"
	"backend-pedalhub/internal/shared/geo"
	"backend-pedalhub/internal/shared/polyline"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultProfile = "bicycle"
	DefaultTimeout = 10 * time.Second

	shapeMatchMapSnap = "map_snap"
)

var ErrRouting = errors.New("routing engine unavailable")

// Client talks to a Valhalla-compatible routing engine.
type Client struct {
	baseURL string
	timeout time.Duration
	profile string
}

func NewClient(baseURL string, timeout time.Duration, profile string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if profile == "" {
		profile = DefaultProfile
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		profile: profile,
	}
}

func (c *Client) Profile() string { return c.profile }

// Trace snaps raw fixes onto the road network. It never fails: any transport
// or engine error is logged and reported as an empty path.
func (c *Client) Trace(ctx context.Context, points []geo.Point) []geo.Point {
	if len(points) < 2 {
		return []geo.Point{}
	}
	defer metrics.ObserveRouting("trace_route", time.Now())

	body, err := c.post(ctx, "/trace_route", traceRequest{
		Shape:      toLocations(points),
		Costing:    c.profile,
		ShapeMatch: shapeMatchMapSnap,
	})
	if err != nil {
		log.Printf("map matching failed: %v", err)
		return []geo.Point{}
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("map matching decode failed: %v", err)
		return []geo.Point{}
	}

	var out []geo.Point
	for _, leg := range resp.Trip.Legs {
		decoded := polyline.Decode(leg.Shape)
		if len(decoded) == 0 {
			log.Printf("map matching returned an undecodable shape")
			return []geo.Point{}
		}
		// consecutive legs share their joining vertex
		if len(out) > 0 && out[len(out)-1] == decoded[0] {
			decoded = decoded[1:]
		}
		out = append(out, decoded...)
	}
	if out == nil {
		return []geo.Point{}
	}
	return out
}

// Route asks for turn-by-turn directions through the ordered locations.
func (c *Client) Route(ctx context.Context, locations []geo.Point, profile string) (Trip, error) {
	if profile == "" {
		profile = c.profile
	}
	defer metrics.ObserveRouting("route", time.Now())

	body, err := c.post(ctx, "/route", routeRequest{
		Locations:         toLocations(locations),
		Costing:           profile,
		DirectionsOptions: directionsOptions{Units: "kilometers"},
	})
	if err != nil {
		return Trip{}, fmt.Errorf("%w: %v", ErrRouting, err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Trip{}, fmt.Errorf("%w: decode: %v", ErrRouting, err)
	}
	return resp.Trip, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.baseURL + path)
	agent.Timeout(timeout)
	agent.JSON(payload)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("%s returned status %d", path, code)
	}
	return body, nil
}
