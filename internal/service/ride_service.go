package service

import (
	"fmt"

	"github.com/velotrack/rides-backend-go/internal/models"
	"github.com/velotrack/rides-backend-go/internal/repository"
	"github.com/velotrack/rides-backend-go/internal/spatial"
)

// RideService handles business logic for rides and their tracks. It also
// implements the recording engine's RideStore interface, so the engine and
// the query API share one storage path.
type RideService struct {
	rides  *repository.RideRepository
	points *repository.TrackPointRepository
}

// NewRideService creates a new ride service
func NewRideService(rides *repository.RideRepository, points *repository.TrackPointRepository) *RideService {
	return &RideService{rides: rides, points: points}
}

// CreateRide inserts a new ride
func (s *RideService) CreateRide(ride *models.RideSession) error {
	return s.rides.Create(ride)
}

// UpdateRide overwrites a ride's live statistics
func (s *RideService) UpdateRide(ride *models.RideSession) error {
	return s.rides.Update(ride)
}

// GetRideByID retrieves a single ride; nil when not found
func (s *RideService) GetRideByID(id string) (*models.RideSession, error) {
	return s.rides.GetByID(id)
}

// GetIncompleteRides retrieves rides that were never finalized
func (s *RideService) GetIncompleteRides() ([]models.RideSession, error) {
	return s.rides.GetIncomplete()
}

// DeleteRide removes a ride and its track points
func (s *RideService) DeleteRide(id string) error {
	return s.rides.Delete(id)
}

// AppendTrackPoints stores a batch of accepted track points
func (s *RideService) AppendTrackPoints(points []models.TrackPoint) error {
	return s.points.AppendBatch(points)
}

// GetRides retrieves rides with filtering and pagination
func (s *RideService) GetRides(filter models.RideFilter) ([]models.RideSession, int64, error) {
	return s.rides.GetRides(filter)
}

// GetTrack retrieves a ride's track, optionally simplified for rendering.
func (s *RideService) GetTrack(rideID string, filter models.TrackFilter) ([]models.TrackPoint, error) {
	points, err := s.points.GetByRideID(rideID)
	if err != nil {
		return nil, err
	}
	if !filter.Simplify {
		return points, nil
	}

	path := make([]spatial.Point, len(points))
	for i, p := range points {
		path[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	simplified := spatial.SimplifyTrack(path, filter.Tolerance)
	if len(simplified) == len(points) {
		return points, nil
	}

	// Map retained positions back to their track points.
	kept := make([]models.TrackPoint, 0, len(simplified))
	j := 0
	for _, sp := range simplified {
		for j < len(points) {
			if points[j].Latitude == sp.Lat && points[j].Longitude == sp.Lon {
				kept = append(kept, points[j])
				j++
				break
			}
			j++
		}
	}
	if len(kept) != len(simplified) {
		return nil, fmt.Errorf("simplified track mismatch: %d of %d points mapped", len(kept), len(simplified))
	}
	return kept, nil
}

// GetBounds computes the map bounding box for a ride's track. ok is false
// when the track has fewer than 2 points and no bounds can be fitted.
func (s *RideService) GetBounds(rideID string, paddingPx int) (spatial.FitBounds, bool, error) {
	points, err := s.points.GetByRideID(rideID)
	if err != nil {
		return spatial.FitBounds{}, false, err
	}

	path := make([]spatial.Point, len(points))
	for i, p := range points {
		path[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	bounds, ok := spatial.FitToTrack(path, paddingPx)
	return bounds, ok, nil
}
