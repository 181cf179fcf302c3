package repository

import (
	"database/sql"
	"fmt"

	"github.com/velotrack/rides-backend-go/internal/models"
)

// TrackPointRepository handles database operations for track points
type TrackPointRepository struct {
	db *sql.DB
}

// NewTrackPointRepository creates a new track point repository
func NewTrackPointRepository(db *sql.DB) *TrackPointRepository {
	return &TrackPointRepository{db: db}
}

// AppendBatch inserts a batch of track points in a single transaction
func (r *TrackPointRepository) AppendBatch(points []models.TrackPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO track_points
		(ride_id, timestamp_ms, latitude, longitude, speed_mps, accuracy_m, is_manually_paused, is_auto_paused)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(
			p.RideID, p.TimestampMillis, p.Latitude, p.Longitude,
			p.SpeedMps, p.AccuracyMeters, p.IsManuallyPaused, p.IsAutoPaused,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert track point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track points: %w", err)
	}
	return nil
}

// GetByRideID retrieves a ride's track points ordered by time
func (r *TrackPointRepository) GetByRideID(rideID string) ([]models.TrackPoint, error) {
	query := `SELECT id, ride_id, timestamp_ms, latitude, longitude, speed_mps, accuracy_m,
		is_manually_paused, is_auto_paused
		FROM track_points WHERE ride_id = ? ORDER BY timestamp_ms`

	rows, err := r.db.Query(query, rideID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	var points []models.TrackPoint
	for rows.Next() {
		var p models.TrackPoint
		err := rows.Scan(
			&p.ID, &p.RideID, &p.TimestampMillis, &p.Latitude, &p.Longitude,
			&p.SpeedMps, &p.AccuracyMeters, &p.IsManuallyPaused, &p.IsAutoPaused,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track point: %w", err)
		}
		points = append(points, p)
	}

	return points, nil
}

// CountByRideID returns the number of stored points for a ride
func (r *TrackPointRepository) CountByRideID(rideID string) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM track_points WHERE ride_id = ?", rideID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count track points: %w", err)
	}
	return count, nil
}

// DeleteByRideID removes a ride's track points
func (r *TrackPointRepository) DeleteByRideID(tx *sql.Tx, rideID string) error {
	var err error
	if tx != nil {
		_, err = tx.Exec("DELETE FROM track_points WHERE ride_id = ?", rideID)
	} else {
		_, err = r.db.Exec("DELETE FROM track_points WHERE ride_id = ?", rideID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete track points: %w", err)
	}
	return nil
}
