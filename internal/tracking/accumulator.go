package tracking

import (
	"math"
	"time"

	"backend-pedalhub/internal/shared/geo"
)

const (
	// stationaryEpsilon is the lat/lon delta under which two points count as the same spot.
	stationaryEpsilon = 1e-6
	// minSpeedInterval gates speed samples so bursts of fixes do not produce absurd speeds.
	minSpeedInterval = 500 * time.Millisecond
	// kcalPerMeter is a flat placeholder, not a physiological model.
	kcalPerMeter = 0.05
)

// Accumulator folds corrected points into ride statistics. Every field is
// updated in AddPoint in constant time; history is kept only for the final
// geometry and is never rescanned.
type Accumulator struct {
	now       func() time.Time
	startedAt time.Time
	points    []CorrectedPoint

	distance     float64
	currentSpeed float64
	highestSpeed float64
	restTime     time.Duration

	ascent     float64
	descent    float64
	highestEle float64
	lowestEle  float64
	hasEle     bool

	paceSum     float64
	paceCount   int
	highestPace float64

	upSlopeSum     float64
	upSlopeCount   int
	downSlopeSum   float64
	downSlopeCount int
}

// NewAccumulator starts a session clock. A nil clock uses time.Now.
func NewAccumulator(now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{now: now, startedAt: now()}
}

func (a *Accumulator) StartedAt() time.Time { return a.startedAt }

func (a *Accumulator) Len() int { return len(a.points) }

// AddPoint stamps the point with the current time and updates every metric.
func (a *Accumulator) AddPoint(lat, lon float64, ele *float64) CorrectedPoint {
	p := CorrectedPoint{Lat: lat, Lon: lon, Ele: ele, Time: a.now()}
	if len(a.points) == 0 {
		a.points = append(a.points, p)
		return p
	}
	prev := a.points[len(a.points)-1]

	dist := geo.HaversineM(prev.Lat, prev.Lon, p.Lat, p.Lon)
	a.distance += dist
	elapsed := p.Time.Sub(prev.Time)

	stationary := math.Abs(p.Lat-prev.Lat) < stationaryEpsilon && math.Abs(p.Lon-prev.Lon) < stationaryEpsilon
	switch {
	case stationary:
		a.restTime += elapsed
		a.currentSpeed = 0
	case elapsed > minSpeedInterval:
		secs := elapsed.Seconds()
		speed := dist / secs
		a.currentSpeed = speed
		if speed > a.highestSpeed {
			a.highestSpeed = speed
		}
		if dist > 0 {
			pace := (secs / dist) * 1000 / 60
			a.paceSum += pace
			a.paceCount++
			if pace > a.highestPace {
				a.highestPace = pace
			}
		}
	default:
		a.currentSpeed = 0
	}

	if p.Ele != nil && prev.Ele != nil {
		a.observeElevation(*prev.Ele)
		a.observeElevation(*p.Ele)

		delta := *p.Ele - *prev.Ele
		if delta > 0 {
			a.ascent += delta
		} else {
			a.descent -= delta
		}
		if dist > 0 {
			slope := delta / dist
			if slope > 0 {
				a.upSlopeSum += slope
				a.upSlopeCount++
			} else if slope < 0 {
				a.downSlopeSum += slope
				a.downSlopeCount++
			}
		}
	}

	a.points = append(a.points, p)
	return p
}

func (a *Accumulator) observeElevation(ele float64) {
	if !a.hasEle {
		a.highestEle, a.lowestEle, a.hasEle = ele, ele, true
		return
	}
	if ele > a.highestEle {
		a.highestEle = ele
	}
	if ele < a.lowestEle {
		a.lowestEle = ele
	}
}

// LiveStats is a pure read against the wall clock.
func (a *Accumulator) LiveStats() LiveStats {
	elapsed := a.now().Sub(a.startedAt).Seconds()
	avg := 0.0
	if elapsed > 0 {
		avg = a.distance / elapsed
	}
	return LiveStats{
		Distance:     a.distance,
		CurrentSpeed: a.currentSpeed,
		AverageSpeed: avg,
		Kcal:         a.distance * kcalPerMeter,
	}
}

// FinalReport returns false unless at least two points were added; a single
// point carries no movement and is not worth persisting.
func (a *Accumulator) FinalReport() (FinalReport, bool) {
	if len(a.points) < 2 {
		return FinalReport{}, false
	}
	total := a.points[len(a.points)-1].Time.Sub(a.startedAt)
	avgSpeed := 0.0
	if total > 0 {
		avgSpeed = a.distance / total.Seconds()
	}

	r := FinalReport{
		HealthTime:        int((total - a.restTime).Seconds()),
		HalfTime:          int(a.restTime.Seconds()),
		Distance:          int(a.distance),
		Kcal:              int(a.distance * kcalPerMeter),
		AverageSpeed:      avgSpeed,
		HighestSpeed:      a.highestSpeed,
		HighestPace:       a.highestPace,
		CumulativeAscent:  int(a.ascent),
		CumulativeDescent: int(a.descent),
		IncreaseSlope:     mean(a.upSlopeSum, a.upSlopeCount),
		DecreaseSlope:     mean(a.downSlopeSum, a.downSlopeCount),
		AveragePace:       mean(a.paceSum, a.paceCount),
	}
	if a.hasEle {
		r.HighestElevation = int(a.highestEle)
		r.LowestElevation = int(a.lowestEle)
	}
	return r, true
}

// Geometry returns the corrected path without capture times.
func (a *Accumulator) Geometry() Geometry {
	if len(a.points) == 0 {
		return Geometry{}
	}
	pts := make([]geo.Point, len(a.points))
	for i, p := range a.points {
		pts[i] = p.Point()
	}
	return Geometry{Start: pts[0], End: pts[len(pts)-1], Points: pts}
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
