// Package polyline decodes and encodes the variable-length delta format the
// routing engine uses for path shapes, at six decimal places of precision.
package polyline

import (
	"math"
	"strings"

	"backend-pedalhub/internal/shared/geo"
)

const precision = 1e6

// Decode turns an encoded shape into coordinates. A malformed string yields
// an empty result; partial decodes are never returned.
func Decode(encoded string) []geo.Point {
	var (
		points   []geo.Point
		lat, lon int64
		index    int
	)
	for index < len(encoded) {
		dLat, next, ok := decodeValue(encoded, index)
		if !ok {
			return []geo.Point{}
		}
		dLon, next, ok := decodeValue(encoded, next)
		if !ok {
			return []geo.Point{}
		}
		index = next
		lat += dLat
		lon += dLon
		points = append(points, geo.Point{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}
	if points == nil {
		return []geo.Point{}
	}
	return points
}

// decodeValue reads one zig-zag encoded integer starting at index.
func decodeValue(encoded string, index int) (int64, int, bool) {
	var result int64
	var shift uint
	for {
		if index >= len(encoded) || shift > 60 {
			return 0, index, false
		}
		c := encoded[index]
		if c < 63 || c > 126 {
			return 0, index, false
		}
		b := int64(c) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index, true
	}
	return result >> 1, index, true
}

// Encode is the inverse of Decode.
func Encode(points []geo.Point) string {
	var sb strings.Builder
	var prevLat, prevLon int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * precision))
		lon := int64(math.Round(p.Lon * precision))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}
