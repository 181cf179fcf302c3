package models

import "fmt"

// RecordingPhase enumerates the ride lifecycle phases. Exactly one recording
// session exists per device; every consumer switches exhaustively on the
// phase so illegal combinations (e.g. both pause kinds) cannot be expressed.
type RecordingPhase string

const (
	PhaseIdle           RecordingPhase = "IDLE"
	PhaseRecording      RecordingPhase = "RECORDING"
	PhaseManuallyPaused RecordingPhase = "MANUALLY_PAUSED"
	PhaseAutoPaused     RecordingPhase = "AUTO_PAUSED"
	PhaseStopped        RecordingPhase = "STOPPED" // Finalized, pending save/discard
)

// RecordingState is the durable snapshot of the recording engine. It is
// persisted on every transition and read once at process start for recovery.
type RecordingState struct {
	Phase  RecordingPhase `json:"phase"`
	RideID string         `json:"rideId,omitempty"`

	// PauseStartedAtMillis is set while in a paused phase; the elapsed pause
	// interval is credited to the matching bucket at resume (or stop).
	PauseStartedAtMillis int64 `json:"pauseStartedAtMillis,omitempty"`
}

// IdleState returns the zero recording state.
func IdleState() RecordingState {
	return RecordingState{Phase: PhaseIdle}
}

// IsPaused reports whether the state is one of the paused variants.
func (s RecordingState) IsPaused() bool {
	return s.Phase == PhaseManuallyPaused || s.Phase == PhaseAutoPaused
}

// Validate checks the state invariants: a ride id is present iff the phase is
// not IDLE, and a pause start is present iff the phase is a paused variant.
func (s RecordingState) Validate() error {
	switch s.Phase {
	case PhaseIdle:
		if s.RideID != "" {
			return fmt.Errorf("idle state carries ride id %s", s.RideID)
		}
	case PhaseRecording, PhaseStopped:
		if s.RideID == "" {
			return fmt.Errorf("%s state without ride id", s.Phase)
		}
		if s.PauseStartedAtMillis != 0 {
			return fmt.Errorf("%s state carries pause start", s.Phase)
		}
	case PhaseManuallyPaused, PhaseAutoPaused:
		if s.RideID == "" {
			return fmt.Errorf("%s state without ride id", s.Phase)
		}
		if s.PauseStartedAtMillis == 0 {
			return fmt.Errorf("%s state without pause start", s.Phase)
		}
	default:
		return fmt.Errorf("unknown recording phase %q", s.Phase)
	}
	return nil
}
