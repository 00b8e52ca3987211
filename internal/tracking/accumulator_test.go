package tracking

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func elev(v float64) *float64 { return &v }

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func finalReport(t *testing.T, acc *Accumulator) FinalReport {
	t.Helper()
	report, ok := acc.FinalReport()
	if !ok {
		t.Fatalf("expected final report")
	}
	return report
}

func TestAccumulatorEquatorSample(t *testing.T) {
	clock := newFakeClock()
	acc := NewAccumulator(clock.Now)

	acc.AddPoint(0, 0, nil)
	clock.Advance(10 * time.Second)
	acc.AddPoint(0.01, 0, nil)

	stats := acc.LiveStats()
	if !near(stats.Distance, 1112.0, 0.5) {
		t.Fatalf("distance %v", stats.Distance)
	}
	if !near(stats.CurrentSpeed, 111.2, 0.05) {
		t.Fatalf("current speed %v", stats.CurrentSpeed)
	}
	if !near(stats.AverageSpeed, stats.Distance/10, 1e-9) {
		t.Fatalf("average speed %v", stats.AverageSpeed)
	}
	if !near(stats.Kcal, stats.Distance*0.05, 1e-9) {
		t.Fatalf("kcal %v", stats.Kcal)
	}

	report := finalReport(t, acc)
	if report.Distance != 1111 {
		t.Fatalf("report distance %d", report.Distance)
	}
	if !near(report.HighestSpeed, 111.2, 0.05) {
		t.Fatalf("highest speed %v", report.HighestSpeed)
	}
	// 10 s per 1.112 km is ~0.15 min/km
	if !near(report.AveragePace, 10.0/1111.95*1000/60, 1e-3) {
		t.Fatalf("average pace %v", report.AveragePace)
	}
	if report.HighestPace != report.AveragePace {
		t.Fatalf("single sample pace mismatch")
	}
	if report.HealthTime != 10 || report.HalfTime != 0 {
		t.Fatalf("unexpected times %d/%d", report.HealthTime, report.HalfTime)
	}
}

func TestAccumulatorLiveStatsZeroElapsed(t *testing.T) {
	clock := newFakeClock()
	acc := NewAccumulator(clock.Now)
	acc.AddPoint(10, 10, nil)
	acc.AddPoint(10.001, 10, nil)

	stats := acc.LiveStats()
	if stats.Distance <= 0 {
		t.Fatalf("expected distance")
	}
	if stats.AverageSpeed != 0 || stats.CurrentSpeed != 0 {
		t.Fatalf("expected zero speeds, got %+v", stats)
	}
}

func TestAccumulatorStationaryPoints(t *testing.T) {
	clock := newFakeClock()
	acc := NewAccumulator(clock.Now)

	clock.Advance(5 * time.Second)
	acc.AddPoint(37.5, 127.0, nil)
	for i := 0; i < 4; i++ {
		clock.Advance(3 * time.Second)
		acc.AddPoint(37.5, 127.0, nil)
	}

	report := finalReport(t, acc)
	if report.Distance != 0 {
		t.Fatalf("expected no distance")
	}
	if report.HalfTime != 12 {
		t.Fatalf("rest time %d", report.HalfTime)
	}
	// total elapsed is 17 s, all 12 s between points are rest
	if report.HealthTime != 5 {
		t.Fatalf("health time %d", report.HealthTime)
	}
	if report.HighestSpeed != 0 || report.AveragePace != 0 {
		t.Fatalf("stationary points must not sample speed or pace")
	}
}

func TestAccumulatorSinglePointHasNoReport(t *testing.T) {
	acc := NewAccumulator(nil)
	if _, ok := acc.FinalReport(); ok {
		t.Fatalf("expected no report without points")
	}

	acc.AddPoint(1, 1, nil)
	if _, ok := acc.FinalReport(); ok {
		t.Fatalf("expected no report for a single point")
	}
	if acc.Len() != 1 {
		t.Fatalf("expected one point")
	}
}

func TestAccumulatorSpeedGate(t *testing.T) {
	clock := newFakeClock()
	acc := NewAccumulator(clock.Now)
	acc.AddPoint(0, 0, nil)
	clock.Advance(400 * time.Millisecond)
	acc.AddPoint(0.0001, 0, nil)

	report := finalReport(t, acc)
	if report.HighestSpeed != 0 || report.AveragePace != 0 {
		t.Fatalf("expected gated speed sample")
	}
	if report.Distance != 11 {
		t.Fatalf("distance %d", report.Distance)
	}
}

func TestAccumulatorElevation(t *testing.T) {
	clock := newFakeClock()
	acc := NewAccumulator(clock.Now)

	acc.AddPoint(0, 0, elev(100))
	clock.Advance(10 * time.Second)
	acc.AddPoint(0.001, 0, elev(110.7))
	clock.Advance(10 * time.Second)
	acc.AddPoint(0.002, 0, elev(95.2))
	clock.Advance(10 * time.Second)
	acc.AddPoint(0.003, 0, nil)

	report := finalReport(t, acc)
	if report.CumulativeAscent != 10 || report.CumulativeDescent != 15 {
		t.Fatalf("ascent/descent %d/%d", report.CumulativeAscent, report.CumulativeDescent)
	}
	if report.HighestElevation != 110 || report.LowestElevation != 95 {
		t.Fatalf("extremes %d/%d", report.HighestElevation, report.LowestElevation)
	}

	seg := 111.195 // meters per 0.001 degree of latitude
	if !near(report.IncreaseSlope, 10.7/seg, 1e-4) {
		t.Fatalf("increase slope %v", report.IncreaseSlope)
	}
	if !near(report.DecreaseSlope, -15.5/seg, 1e-4) {
		t.Fatalf("decrease slope %v", report.DecreaseSlope)
	}
}

func TestAccumulatorNoElevation(t *testing.T) {
	clock := newFakeClock()
	acc := NewAccumulator(clock.Now)
	for i := 0; i < 5; i++ {
		acc.AddPoint(float64(i)*0.001, 0, nil)
		clock.Advance(2 * time.Second)
	}

	report := finalReport(t, acc)
	if report.CumulativeAscent != 0 || report.CumulativeDescent != 0 ||
		report.HighestElevation != 0 || report.LowestElevation != 0 ||
		report.IncreaseSlope != 0 || report.DecreaseSlope != 0 {
		t.Fatalf("expected empty elevation metrics, got %+v", report)
	}
}

func TestAccumulatorGeometry(t *testing.T) {
	acc := NewAccumulator(nil)
	if len(acc.Geometry().Points) != 0 {
		t.Fatalf("expected empty geometry")
	}

	acc.AddPoint(1, 2, nil)
	acc.AddPoint(3, 4, nil)
	acc.AddPoint(5, 6, nil)

	g := acc.Geometry()
	if len(g.Points) != 3 {
		t.Fatalf("expected 3 points")
	}
	if g.Start.Lat != 1 || g.End.Lon != 6 {
		t.Fatalf("unexpected endpoints %+v", g)
	}
}
