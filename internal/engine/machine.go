package engine

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/velotrack/rides-backend-go/internal/models"
)

// MinRideMovingMillis is the shortest moving duration worth keeping. Rides
// below it are auto-discarded on stop without prompting the user.
const MinRideMovingMillis = 5000

// StopStatus classifies the outcome of stopping a ride.
type StopStatus string

const (
	StopSuccess      StopStatus = "SUCCESS"
	StopTooShort     StopStatus = "TOO_SHORT"      // Caller must auto-discard
	StopRideNotFound StopStatus = "RIDE_NOT_FOUND" // Ride id unknown to storage
)

// StopResult is the typed outcome of a stop action. It is a result value,
// not an error: every branch is a normal outcome the caller must handle.
type StopResult struct {
	Status       StopStatus          `json:"status"`
	Session      *models.RideSession `json:"session,omitempty"` // Set on SUCCESS
	MovingMillis int64               `json:"movingMillis"`
}

// Machine is the recording state machine. It owns the ride lifecycle state,
// the active session and the distance/duration accounting. It is not safe
// for concurrent use: the Recorder goroutine is its single owner, and tests
// drive it directly with a fake clock.
type Machine struct {
	cfg models.AutoPauseConfig
	log zerolog.Logger

	state   models.RecordingState
	session *models.RideSession
	dist    DistanceAccumulator

	prevFix *models.LocationFix

	// stationarySinceMillis marks the start of an unbroken run of stationary
	// measurements while recording; zero means no active run.
	stationarySinceMillis int64
}

// NewMachine creates an idle machine.
func NewMachine(cfg models.AutoPauseConfig, log zerolog.Logger) *Machine {
	return &Machine{
		cfg:   cfg.Normalize(),
		log:   log,
		state: models.IdleState(),
	}
}

// State returns the current recording state.
func (m *Machine) State() models.RecordingState { return m.state }

// Session returns a copy of the active session, or nil when idle.
func (m *Machine) Session() *models.RideSession {
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Start begins a new ride. Valid only from IDLE; anything else is a logged
// no-op.
func (m *Machine) Start(nowMillis int64) (*models.RideSession, bool) {
	if m.state.Phase != models.PhaseIdle {
		m.logInvalid("start")
		return nil, false
	}

	m.session = &models.RideSession{
		ID:              uuid.NewString(),
		StartTimeMillis: nowMillis,
	}
	m.dist.Reset()
	m.prevFix = nil
	m.stationarySinceMillis = 0
	m.state = models.RecordingState{Phase: models.PhaseRecording, RideID: m.session.ID}
	return m.Session(), true
}

// PauseManual pauses the ride at the user's request. Valid from RECORDING
// and from AUTO_PAUSED: a manual pause strictly dominates, so an auto pause
// is converted by closing its bucket first.
func (m *Machine) PauseManual(nowMillis int64) bool {
	switch m.state.Phase {
	case models.PhaseRecording:
	case models.PhaseAutoPaused:
		m.session.AutoPausedMillis += nowMillis - m.state.PauseStartedAtMillis
	default:
		m.logInvalid("pause")
		return false
	}
	m.stationarySinceMillis = 0
	m.state = models.RecordingState{
		Phase:                models.PhaseManuallyPaused,
		RideID:               m.state.RideID,
		PauseStartedAtMillis: nowMillis,
	}
	return true
}

// Resume ends a manual pause, crediting the whole pause interval in one
// atomic step. Auto pauses resume on their own when speed returns; a user
// resume while AUTO_PAUSED is a logged no-op.
func (m *Machine) Resume(nowMillis int64) bool {
	if m.state.Phase != models.PhaseManuallyPaused {
		m.logInvalid("resume")
		return false
	}
	m.session.ManualPausedMillis += nowMillis - m.state.PauseStartedAtMillis
	m.state = models.RecordingState{Phase: models.PhaseRecording, RideID: m.state.RideID}
	return true
}

// ProcessFix runs a raw fix through the accuracy gate, estimates speed,
// updates distance and statistics, and evaluates auto-pause. It returns the
// accepted track point, or ok=false when the fix was dropped or the machine
// is not in a ride.
func (m *Machine) ProcessFix(fix models.LocationFix) (models.TrackPoint, bool) {
	switch m.state.Phase {
	case models.PhaseRecording, models.PhaseManuallyPaused, models.PhaseAutoPaused:
	default:
		return models.TrackPoint{}, false
	}

	meas := EstimateSpeed(fix, m.prevFix)

	point := models.TrackPoint{
		RideID:           m.state.RideID,
		TimestampMillis:  fix.TimestampMillis,
		Latitude:         fix.Latitude,
		Longitude:        fix.Longitude,
		SpeedMps:         meas.SpeedKmh / 3.6,
		AccuracyMeters:   fix.AccuracyMeters,
		IsManuallyPaused: m.state.Phase == models.PhaseManuallyPaused,
		IsAutoPaused:     m.state.Phase == models.PhaseAutoPaused,
	}
	if err := point.Validate(); err != nil {
		m.log.Debug().Err(err).Msg("fix dropped")
		return models.TrackPoint{}, false
	}

	if m.state.Phase == models.PhaseRecording {
		m.dist.Advance(fix.Latitude, fix.Longitude)
		m.session.DistanceMeters = m.dist.Total()
		if point.SpeedMps > m.session.MaxSpeedMps {
			m.session.MaxSpeedMps = point.SpeedMps
		}
	} else {
		// Paused: keep the track continuous but count nothing.
		m.dist.Skip(fix.Latitude, fix.Longitude)
	}
	m.prevFix = &fix

	m.observe(meas)
	return point, true
}

// observe drives auto-pause detection from a speed measurement.
func (m *Machine) observe(meas models.SpeedMeasurement) {
	switch m.state.Phase {
	case models.PhaseRecording:
		if !meas.IsStationary {
			m.stationarySinceMillis = 0
			return
		}
		if !m.cfg.Enabled {
			return
		}
		if m.stationarySinceMillis == 0 {
			m.stationarySinceMillis = meas.TimestampMillis
			return
		}
		threshold := int64(m.cfg.ThresholdSeconds) * 1000
		if meas.TimestampMillis-m.stationarySinceMillis >= threshold {
			m.state = models.RecordingState{
				Phase:                models.PhaseAutoPaused,
				RideID:               m.state.RideID,
				PauseStartedAtMillis: meas.TimestampMillis,
			}
			m.stationarySinceMillis = 0
		}

	case models.PhaseAutoPaused:
		// Resume is immediate on the first non-stationary measurement.
		if !meas.IsStationary {
			m.session.AutoPausedMillis += meas.TimestampMillis - m.state.PauseStartedAtMillis
			m.state = models.RecordingState{Phase: models.PhaseRecording, RideID: m.state.RideID}
		}

	default:
		// Manual pause dominates: stationary streaks are neither tracked nor
		// acted on outside RECORDING.
	}
}

// Tick recomputes the duration accounting. Elapsed and moving time only
// advance while RECORDING; ticking is frozen in the paused variants, and the
// open pause interval is credited in one step at resume instead.
func (m *Machine) Tick(nowMillis int64) {
	if m.state.Phase != models.PhaseRecording || m.session == nil {
		return
	}
	m.session.ElapsedMillis = nowMillis - m.session.StartTimeMillis
	m.session.MovingMillis = m.session.ElapsedMillis - m.session.ManualPausedMillis - m.session.AutoPausedMillis
	m.session.AvgSpeedMps = avgSpeed(m.session.DistanceMeters, m.session.MovingMillis)
}

// Stop finalizes the ride. Valid from RECORDING and both paused variants.
// A ride with less than MinRideMovingMillis of moving time yields TOO_SHORT
// and the machine resets to IDLE so the caller can auto-discard; otherwise
// the machine holds in STOPPED until ConfirmSave or Discard.
func (m *Machine) Stop(nowMillis int64) (StopResult, bool) {
	switch m.state.Phase {
	case models.PhaseManuallyPaused:
		m.session.ManualPausedMillis += nowMillis - m.state.PauseStartedAtMillis
	case models.PhaseAutoPaused:
		m.session.AutoPausedMillis += nowMillis - m.state.PauseStartedAtMillis
	case models.PhaseRecording:
	default:
		m.logInvalid("stop")
		return StopResult{}, false
	}

	end := nowMillis
	m.session.EndTimeMillis = &end
	m.session.ElapsedMillis = end - m.session.StartTimeMillis
	m.session.MovingMillis = m.session.ElapsedMillis - m.session.ManualPausedMillis - m.session.AutoPausedMillis
	m.session.AvgSpeedMps = avgSpeed(m.session.DistanceMeters, m.session.MovingMillis)

	if m.session.MovingMillis < MinRideMovingMillis {
		moving := m.session.MovingMillis
		m.reset()
		return StopResult{Status: StopTooShort, MovingMillis: moving}, true
	}

	m.state = models.RecordingState{Phase: models.PhaseStopped, RideID: m.state.RideID}
	return StopResult{Status: StopSuccess, Session: m.Session(), MovingMillis: m.session.MovingMillis}, true
}

// ConfirmSave resolves STOPPED to IDLE after the caller has persisted the
// finalized ride.
func (m *Machine) ConfirmSave() bool {
	if m.state.Phase != models.PhaseStopped {
		m.logInvalid("save")
		return false
	}
	m.reset()
	return true
}

// Discard abandons the current ride from any non-idle phase.
func (m *Machine) Discard() (rideID string, ok bool) {
	if m.state.Phase == models.PhaseIdle {
		m.logInvalid("discard")
		return "", false
	}
	rideID = m.state.RideID
	m.reset()
	return rideID, true
}

// Restore rehydrates the machine from a persisted state and its open ride.
// The preserved PauseStartedAtMillis means time lost to a process death
// while paused is credited to that pause bucket at the next resume; a death
// while recording lands in moving time when elapsed is recomputed.
func (m *Machine) Restore(state models.RecordingState, session *models.RideSession) {
	m.state = state
	m.session = session
	m.dist.Restore(session.DistanceMeters)
	m.prevFix = nil
	m.stationarySinceMillis = 0
}

func (m *Machine) reset() {
	m.state = models.IdleState()
	m.session = nil
	m.dist.Reset()
	m.prevFix = nil
	m.stationarySinceMillis = 0
}

func (m *Machine) logInvalid(action string) {
	m.log.Warn().
		Str("action", action).
		Str("phase", string(m.state.Phase)).
		Msg("invalid transition ignored")
}

func avgSpeed(distanceMeters float64, movingMillis int64) float64 {
	if movingMillis <= 0 {
		return 0
	}
	return distanceMeters / (float64(movingMillis) / 1000.0)
}
