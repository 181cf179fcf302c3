package models

// RideFilter represents filter parameters for querying rides
type RideFilter struct {
	StartTime   int64   `form:"startTime"`   // Unix timestamp in milliseconds
	EndTime     int64   `form:"endTime"`     // Unix timestamp in milliseconds
	MinDistance float64 `form:"minDistance"` // Meters
	MinDuration int64   `form:"minDuration"` // Milliseconds of moving time
	Page        int     `form:"page"`
	PageSize    int     `form:"pageSize"`
}

// TrackFilter represents query parameters for retrieving a ride's track
type TrackFilter struct {
	Simplify  bool    `form:"simplify"`
	Tolerance float64 `form:"tolerance"` // Meters; 0 means the default
}
