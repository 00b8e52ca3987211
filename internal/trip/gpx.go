package trip

import (
	"encoding/xml"
	"math"

	"backend-pedalhub/internal/shared/geo"
)

type gpxPoint struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type gpxDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Track   struct {
		Name    string     `xml:"name"`
		Segment []gpxPoint `xml:"trkseg>trkpt"`
	} `xml:"trk"`
}

// GPX renders the route as a GPX 1.1 track.
func GPX(route Route) ([]byte, error) {
	if len(route.Points) == 0 {
		return nil, ErrNoPoints
	}
	doc := gpxDoc{Version: "1.1", Creator: "NuclPedal", Xmlns: "http://www.topografix.com/GPX/1/1"}
	doc.Track.Name = "Route " + route.ID
	for _, p := range route.Points {
		doc.Track.Segment = append(doc.Track.Segment, gpxPoint{Lat: p.Lat, Lon: p.Lon})
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

const (
	// turnThresholdDeg is the heading change that counts as a turn.
	turnThresholdDeg = 30.0
	// minTurnSegmentM skips jitter between nearly identical points.
	minTurnSegmentM = 10.0
	// metersPerDegree flattens lat/lon deltas for the jitter check.
	metersPerDegree = 111320.0
)

// TurnPoints returns the vertices where the heading changes by more than the
// turn threshold.
func TurnPoints(points []geo.Point) []geo.Point {
	if len(points) < 3 {
		return []geo.Point{}
	}
	turns := []geo.Point{}
	prevBearing := geo.Bearing(points[0].Lat, points[0].Lon, points[1].Lat, points[1].Lon)

	for i := 1; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		if flatDistanceM(a, b) < minTurnSegmentM {
			continue
		}
		bearing := geo.Bearing(a.Lat, a.Lon, b.Lat, b.Lon)
		diff := bearing - prevBearing
		if diff < 0 {
			diff = -diff
		}
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > turnThresholdDeg {
			turns = append(turns, a)
		}
		prevBearing = bearing
	}
	return turns
}

// flatDistanceM treats degrees of latitude and longitude as equal lengths.
// It overstates east-west distance away from the equator.
func flatDistanceM(a, b geo.Point) float64 {
	return math.Hypot(b.Lat-a.Lat, b.Lon-a.Lon) * metersPerDegree
}
