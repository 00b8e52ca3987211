package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend-pedalhub/internal/db"
	"backend-pedalhub/internal/shared/geo"
	"backend-pedalhub/internal/tracking"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound  = errors.New("route not found")
	ErrForbidden = errors.New("not the owner of this route")
	ErrNoPoints  = errors.New("route has no points")

	ErrUnknownPeriod = errors.New("unknown period")
)

// MediaRemover deletes stored files by URL.
type MediaRemover interface {
	Delete(ctx context.Context, url string) error
}

type Service struct {
	db    db.TxQuerier
	media MediaRemover
}

func NewService(db db.TxQuerier, media MediaRemover) *Service {
	return &Service{db: db, media: media}
}

// CreatePlaceholder reserves a route and a report for a ride that is about to start.
func (s *Service) CreatePlaceholder(ctx context.Context, userID string) (string, string, error) {
	routeID := uuid.NewString()
	reportID := uuid.NewString()

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO routes (id, user_id)
			VALUES ($1,$2)
		`, routeID, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO reports (id, user_id, route_id)
			VALUES ($1,$2,$3)
		`, reportID, userID, routeID)
		return err
	})
	if err != nil {
		return "", "", fmt.Errorf("create placeholder: %w", err)
	}
	return routeID, reportID, nil
}

// Finalize writes the corrected path and the computed metrics in one transaction.
func (s *Service) Finalize(ctx context.Context, routeID, reportID string, g tracking.Geometry, r tracking.FinalReport) error {
	start, err := json.Marshal(g.Start)
	if err != nil {
		return err
	}
	end, err := json.Marshal(g.End)
	if err != nil {
		return err
	}
	points, err := json.Marshal(g.Points)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE routes
			SET start_point=$2, end_point=$3, points_json=$4, updated_at=now()
			WHERE id=$1
		`, routeID, string(start), string(end), string(points)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE reports
			SET health_time=$2, half_time=$3, distance=$4, kcal=$5,
			    average_speed=$6, highest_speed=$7, average_pace=$8, highest_pace=$9,
			    cumulative_high=$10, cumulative_low=$11, highest_high=$12, lowest_high=$13,
			    increase_slope=$14, decrease_slope=$15, updated_at=now()
			WHERE id=$1
		`, reportID, r.HealthTime, r.HalfTime, r.Distance, r.Kcal,
			r.AverageSpeed, r.HighestSpeed, r.AveragePace, r.HighestPace,
			r.CumulativeAscent, r.CumulativeDescent, r.HighestElevation, r.LowestElevation,
			r.IncreaseSlope, r.DecreaseSlope)
		return err
	})
	if err != nil {
		return fmt.Errorf("finalize route %s: %w", routeID, err)
	}
	return nil
}

// DeletePlaceholder removes a reservation that never received a usable path.
func (s *Service) DeletePlaceholder(ctx context.Context, routeID, reportID string) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM reports WHERE id=$1`, reportID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM routes WHERE id=$1`, routeID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete placeholder %s: %w", routeID, err)
	}
	return nil
}

func (s *Service) GetRoute(ctx context.Context, id string) (Route, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, COALESCE(name,''), COALESCE(user_id,''), start_point, end_point, points_json, created_at
		FROM routes WHERE id=$1
	`, id)

	var route Route
	var start, end, points []byte
	if err := row.Scan(&route.ID, &route.Name, &route.UserID, &start, &end, &points, &route.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Route{}, ErrNotFound
		}
		return Route{}, err
	}
	if len(start) > 0 {
		route.StartPoint = &geo.Point{}
		if err := json.Unmarshal(start, route.StartPoint); err != nil {
			return Route{}, err
		}
	}
	if len(end) > 0 {
		route.EndPoint = &geo.Point{}
		if err := json.Unmarshal(end, route.EndPoint); err != nil {
			return Route{}, err
		}
	}
	if len(points) > 0 {
		if err := json.Unmarshal(points, &route.Points); err != nil {
			return Route{}, err
		}
	}
	return route, nil
}

func (s *Service) RoutePoints(ctx context.Context, id string) ([]geo.Point, error) {
	route, err := s.GetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	return route.Points, nil
}

// DeleteRoute removes the route's stored images first, then the rows.
func (s *Service) DeleteRoute(ctx context.Context, id, userID string) error {
	route, err := s.GetRoute(ctx, id)
	if err != nil {
		return err
	}
	if route.UserID != userID {
		return ErrForbidden
	}

	rows, err := s.db.Query(ctx, `SELECT url FROM route_images WHERE route_id=$1`, id)
	if err != nil {
		return err
	}
	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return err
		}
		urls = append(urls, url)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if s.media != nil {
		for _, url := range urls {
			if err := s.media.Delete(ctx, url); err != nil {
				return fmt.Errorf("delete media %s: %w", url, err)
			}
		}
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM route_images WHERE route_id=$1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM reports WHERE route_id=$1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM routes WHERE id=$1`, id)
		return err
	})
}

// ReportSummary aggregates a user's finished reports over the period ending at now.
func (s *Service) ReportSummary(ctx context.Context, userID string, period Period, now time.Time) (Summary, error) {
	var from time.Time
	switch period {
	case PeriodDay:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		from = now.AddDate(0, 0, -7)
	case PeriodMonth:
		from = now.AddDate(0, -1, 0)
	default:
		return Summary{}, fmt.Errorf("%w %q", ErrUnknownPeriod, period)
	}

	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(health_time),0), COALESCE(SUM(distance),0), COALESCE(SUM(kcal),0)
		FROM reports
		WHERE user_id=$1 AND created_at >= $2 AND created_at <= $3
	`, userID, from, now)

	var count, seconds, meters, kcal int64
	if err := row.Scan(&count, &seconds, &meters, &kcal); err != nil {
		return Summary{}, err
	}
	return Summary{
		RoutesTaken:       int(count),
		TotalActivityTime: fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60),
		TotalDistanceKm:   float64(meters) / 1000,
		TotalKcal:         int(kcal),
	}, nil
}

func (s *Service) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
