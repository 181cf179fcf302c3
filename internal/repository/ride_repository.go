package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/velotrack/rides-backend-go/internal/models"
)

// RideRepository handles database operations for rides
type RideRepository struct {
	db *sql.DB
}

// NewRideRepository creates a new ride repository
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

const rideColumns = `id, start_time_ms, end_time_ms, elapsed_ms, moving_ms,
	manual_paused_ms, auto_paused_ms, distance_m, avg_speed_mps, max_speed_mps,
	created_at, updated_at`

// Create inserts a new ride
func (r *RideRepository) Create(ride *models.RideSession) error {
	now := time.Now().UTC()
	ride.CreatedAt = now
	ride.UpdatedAt = now

	query := `INSERT INTO rides (id, start_time_ms, end_time_ms, elapsed_ms, moving_ms,
		manual_paused_ms, auto_paused_ms, distance_m, avg_speed_mps, max_speed_mps,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		ride.ID, ride.StartTimeMillis, ride.EndTimeMillis, ride.ElapsedMillis, ride.MovingMillis,
		ride.ManualPausedMillis, ride.AutoPausedMillis, ride.DistanceMeters, ride.AvgSpeedMps, ride.MaxSpeedMps,
		ride.CreatedAt, ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}
	return nil
}

// Update overwrites a ride's statistics and end time
func (r *RideRepository) Update(ride *models.RideSession) error {
	ride.UpdatedAt = time.Now().UTC()

	query := `UPDATE rides SET end_time_ms = ?, elapsed_ms = ?, moving_ms = ?,
		manual_paused_ms = ?, auto_paused_ms = ?, distance_m = ?,
		avg_speed_mps = ?, max_speed_mps = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.Exec(query,
		ride.EndTimeMillis, ride.ElapsedMillis, ride.MovingMillis,
		ride.ManualPausedMillis, ride.AutoPausedMillis, ride.DistanceMeters,
		ride.AvgSpeedMps, ride.MaxSpeedMps, ride.UpdatedAt,
		ride.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check ride update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ride %s not found", ride.ID)
	}
	return nil
}

// GetByID retrieves a single ride by ID; nil when not found
func (r *RideRepository) GetByID(id string) (*models.RideSession, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = ?`

	ride, err := scanRide(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return ride, nil
}

// GetRides retrieves rides with filtering and pagination
func (r *RideRepository) GetRides(filter models.RideFilter) ([]models.RideSession, int64, error) {
	query := `SELECT ` + rideColumns + ` FROM rides`

	var conditions []string
	var args []interface{}

	if filter.StartTime > 0 {
		conditions = append(conditions, "start_time_ms >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "start_time_ms <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.MinDistance > 0 {
		conditions = append(conditions, "distance_m >= ?")
		args = append(args, filter.MinDistance)
	}
	if filter.MinDuration > 0 {
		conditions = append(conditions, "moving_ms >= ?")
		args = append(args, filter.MinDuration)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM rides"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	err := r.db.QueryRow(countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	offset := (filter.Page - 1) * filter.PageSize
	query += " ORDER BY start_time_ms DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query rides: %w", err)
	}
	defer rows.Close()

	var rides []models.RideSession
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ride: %w", err)
		}
		rides = append(rides, *ride)
	}

	return rides, total, nil
}

// GetIncomplete retrieves rides that were never finalized (no end time)
func (r *RideRepository) GetIncomplete() ([]models.RideSession, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE end_time_ms IS NULL ORDER BY start_time_ms`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query incomplete rides: %w", err)
	}
	defer rows.Close()

	var rides []models.RideSession
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride: %w", err)
		}
		rides = append(rides, *ride)
	}

	return rides, nil
}

// Delete removes a ride; its track points cascade
func (r *RideRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM rides WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete ride: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRide(row rowScanner) (*models.RideSession, error) {
	var ride models.RideSession
	var endTime sql.NullInt64

	err := row.Scan(
		&ride.ID, &ride.StartTimeMillis, &endTime, &ride.ElapsedMillis, &ride.MovingMillis,
		&ride.ManualPausedMillis, &ride.AutoPausedMillis, &ride.DistanceMeters,
		&ride.AvgSpeedMps, &ride.MaxSpeedMps,
		&ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		ride.EndTimeMillis = &endTime.Int64
	}
	return &ride, nil
}
