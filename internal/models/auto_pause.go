package models

// AutoPauseThresholds lists the selectable stationary durations (seconds)
// before an automatic pause triggers.
var AutoPauseThresholds = []int{1, 2, 5, 10, 15, 30}

// DefaultAutoPauseThresholdSeconds is used when the configured value is not
// one of the allowed thresholds.
const DefaultAutoPauseThresholdSeconds = 5

// AutoPauseConfig is read-only configuration for the recording engine.
type AutoPauseConfig struct {
	Enabled          bool `json:"enabled"`
	ThresholdSeconds int  `json:"thresholdSeconds"` // One of AutoPauseThresholds
}

// Normalize returns a copy with the threshold snapped to the allowed set.
func (c AutoPauseConfig) Normalize() AutoPauseConfig {
	for _, t := range AutoPauseThresholds {
		if c.ThresholdSeconds == t {
			return c
		}
	}
	c.ThresholdSeconds = DefaultAutoPauseThresholdSeconds
	return c
}
