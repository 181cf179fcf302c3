package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/velotrack/rides-backend-go/internal/location"
	"github.com/velotrack/rides-backend-go/internal/logger"
	"github.com/velotrack/rides-backend-go/internal/models"
)

// RideStore is the ride storage collaborator. The engine is the only writer
// of live statistics; schema and storage format are the store's concern.
type RideStore interface {
	CreateRide(ride *models.RideSession) error
	UpdateRide(ride *models.RideSession) error
	GetRideByID(id string) (*models.RideSession, error)
	GetIncompleteRides() ([]models.RideSession, error)
	DeleteRide(id string) error
	AppendTrackPoints(points []models.TrackPoint) error
}

// StateStore is the durable snapshot of the recording state, read once at
// process start for crash recovery.
type StateStore interface {
	Put(state models.RecordingState) error
	Get() models.RecordingState
	Clear() error
}

// Action errors. Invalid transitions are no-ops inside the machine; the
// recorder surfaces them so the API can answer with a conflict instead of
// silently succeeding.
var (
	ErrInvalidTransition = errors.New("engine: action not valid in current state")
	ErrNotRunning        = errors.New("engine: recorder not running")
)

// Config holds the recorder's tunables.
type Config struct {
	AutoPause      models.AutoPauseConfig
	TickInterval   time.Duration    // Duration recompute cadence; default 1s
	FlushBatchSize int              // Track points buffered before a flush; default 25
	Clock          func() time.Time // Injected for tests; default time.Now
}

// Snapshot is the engine state as observed by the UI.
type Snapshot struct {
	State   models.RecordingState `json:"state"`
	Session *models.RideSession   `json:"session,omitempty"`
}

// Recorder owns the recording engine. Three asynchronous inputs — the
// location subscription, the duration tick and user actions — are funneled
// into one goroutine and processed strictly in arrival order, so nothing
// ever mutates the session or state concurrently.
type Recorder struct {
	machine *Machine
	rides   RideStore
	states  StateStore
	source  location.Source

	tickInterval   time.Duration
	flushBatchSize int
	clock          func() time.Time
	log            zerolog.Logger

	actions chan actionRequest
	cancel  context.CancelFunc
	done    chan struct{}

	// Owned by the loop goroutine.
	fixes   <-chan models.LocationFix
	pending []models.TrackPoint
}

type actionKind int

const (
	actionStart actionKind = iota
	actionPause
	actionResume
	actionStop
	actionSave
	actionDiscard
	actionSnapshot
)

type actionRequest struct {
	kind  actionKind
	reply chan actionReply
}

type actionReply struct {
	snapshot Snapshot
	stop     *StopResult
	err      error
}

// NewRecorder wires the engine to its collaborators.
func NewRecorder(cfg Config, rides RideStore, states StateStore, source location.Source) *Recorder {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.FlushBatchSize <= 0 {
		cfg.FlushBatchSize = 25
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	log := logger.WithComponent("recorder")
	return &Recorder{
		machine:        NewMachine(cfg.AutoPause, log),
		rides:          rides,
		states:         states,
		source:         source,
		tickInterval:   cfg.TickInterval,
		flushBatchSize: cfg.FlushBatchSize,
		clock:          cfg.Clock,
		log:            log,
		actions:        make(chan actionRequest),
		done:           make(chan struct{}),
	}
}

// Start recovers any interrupted ride, subscribes to the location source and
// launches the event loop.
func (r *Recorder) Start(ctx context.Context) error {
	r.recover()

	ctx, r.cancel = context.WithCancel(ctx)

	fixes, err := r.source.Subscribe(ctx)
	if err != nil {
		// PermissionDenied / ProviderUnavailable: keep running without
		// fixes; actions and ticks still work.
		r.log.Error().Err(err).Msg("location subscription failed")
		fixes = nil
	}
	r.fixes = fixes

	go r.loop(ctx)
	return nil
}

// Close stops the event loop, unsubscribes and flushes buffered points.
// In-flight persistence writes complete; nothing is aborted.
func (r *Recorder) Close() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.source.Unsubscribe()
}

func (r *Recorder) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush()
			return

		case req := <-r.actions:
			req.reply <- r.handleAction(req.kind)

		case fix, ok := <-r.fixes:
			if !ok {
				r.log.Warn().Msg("location stream closed, no longer accepting fixes")
				r.fixes = nil
				continue
			}
			r.handleFix(fix)

		case <-ticker.C:
			r.handleTick()
		}
	}
}

func (r *Recorder) handleFix(fix models.LocationFix) {
	before := r.machine.State()
	point, ok := r.machine.ProcessFix(fix)
	if !ok {
		return
	}
	r.pending = append(r.pending, point)
	if len(r.pending) >= r.flushBatchSize {
		r.flush()
	}
	r.persistIfChanged(before)
}

func (r *Recorder) handleTick() {
	r.machine.Tick(r.nowMillis())
	if s := r.machine.Session(); s != nil && r.machine.State().Phase == models.PhaseRecording {
		if err := r.rides.UpdateRide(s); err != nil {
			r.log.Error().Err(err).Str("ride_id", s.ID).Msg("live stats update failed")
		}
	}
}

func (r *Recorder) handleAction(kind actionKind) actionReply {
	now := r.nowMillis()

	switch kind {
	case actionSnapshot:
		return actionReply{snapshot: r.snapshot()}

	case actionStart:
		session, ok := r.machine.Start(now)
		if !ok {
			return actionReply{err: ErrInvalidTransition}
		}
		if err := r.rides.CreateRide(session); err != nil {
			r.log.Error().Err(err).Str("ride_id", session.ID).Msg("ride create failed")
		}
		r.persistState()
		return actionReply{snapshot: r.snapshot()}

	case actionPause:
		if !r.machine.PauseManual(now) {
			return actionReply{err: ErrInvalidTransition}
		}
		r.flush()
		r.persistState()
		return actionReply{snapshot: r.snapshot()}

	case actionResume:
		if !r.machine.Resume(now) {
			return actionReply{err: ErrInvalidTransition}
		}
		r.persistState()
		return actionReply{snapshot: r.snapshot()}

	case actionStop:
		return r.handleStop(now)

	case actionSave:
		session := r.machine.Session()
		if !r.machine.ConfirmSave() {
			return actionReply{err: ErrInvalidTransition}
		}
		if err := r.states.Clear(); err != nil {
			r.log.Error().Err(err).Msg("state clear failed")
		}
		return actionReply{snapshot: Snapshot{State: r.machine.State(), Session: session}}

	case actionDiscard:
		rideID, ok := r.machine.Discard()
		if !ok {
			return actionReply{err: ErrInvalidTransition}
		}
		r.pending = nil
		if err := r.rides.DeleteRide(rideID); err != nil {
			r.log.Error().Err(err).Str("ride_id", rideID).Msg("ride delete failed")
		}
		if err := r.states.Clear(); err != nil {
			r.log.Error().Err(err).Msg("state clear failed")
		}
		return actionReply{snapshot: r.snapshot()}
	}

	return actionReply{err: ErrInvalidTransition}
}

func (r *Recorder) handleStop(now int64) actionReply {
	rideID := r.machine.State().RideID
	result, ok := r.machine.Stop(now)
	if !ok {
		return actionReply{err: ErrInvalidTransition}
	}
	r.flush()

	// A stale or unknown ride id cannot be finalized.
	existing, err := r.rides.GetRideByID(rideID)
	if err != nil {
		r.log.Error().Err(err).Str("ride_id", rideID).Msg("ride lookup failed")
	}
	if existing == nil {
		r.machine.reset()
		if err := r.states.Clear(); err != nil {
			r.log.Error().Err(err).Msg("state clear failed")
		}
		result = StopResult{Status: StopRideNotFound}
		return actionReply{stop: &result, snapshot: r.snapshot()}
	}

	switch result.Status {
	case StopTooShort:
		// Machine already reset; auto-discard the ride.
		if err := r.rides.DeleteRide(rideID); err != nil {
			r.log.Error().Err(err).Str("ride_id", rideID).Msg("too-short ride delete failed")
		}
		if err := r.states.Clear(); err != nil {
			r.log.Error().Err(err).Msg("state clear failed")
		}
		r.log.Info().Str("ride_id", rideID).Int64("moving_ms", result.MovingMillis).Msg("ride too short, discarded")

	case StopSuccess:
		if err := r.rides.UpdateRide(result.Session); err != nil {
			r.log.Error().Err(err).Str("ride_id", rideID).Msg("ride finalize failed")
		}
		r.persistState()
	}

	return actionReply{stop: &result, snapshot: r.snapshot()}
}

// recover reads the persisted state and resumes an interrupted ride in the
// same variant it was in when the process died. Incomplete rides not
// referenced by the state are orphans and are removed.
func (r *Recorder) recover() {
	state := r.states.Get()

	var resumed string
	if state.Phase != models.PhaseIdle {
		ride, err := r.rides.GetRideByID(state.RideID)
		if err != nil {
			r.log.Error().Err(err).Str("ride_id", state.RideID).Msg("recovery lookup failed")
		}
		switch {
		case ride == nil:
			r.log.Warn().Str("ride_id", state.RideID).Msg("persisted state references unknown ride, resetting")
			if err := r.states.Clear(); err != nil {
				r.log.Error().Err(err).Msg("state clear failed")
			}
		case state.Phase != models.PhaseStopped && !ride.IsOpen():
			r.log.Warn().Str("ride_id", state.RideID).Msg("persisted state references closed ride, resetting")
			if err := r.states.Clear(); err != nil {
				r.log.Error().Err(err).Msg("state clear failed")
			}
		default:
			r.machine.Restore(state, ride)
			resumed = state.RideID
			r.log.Info().
				Str("ride_id", state.RideID).
				Str("phase", string(state.Phase)).
				Msg("resumed interrupted ride")
		}
	}

	// Sweep orphaned open rides (e.g. crash between ride create and the
	// first state write, or after a discard's state clear).
	open, err := r.rides.GetIncompleteRides()
	if err != nil {
		r.log.Error().Err(err).Msg("orphan sweep failed")
		return
	}
	for _, ride := range open {
		if ride.ID == resumed {
			continue
		}
		if err := r.rides.DeleteRide(ride.ID); err != nil {
			r.log.Error().Err(err).Str("ride_id", ride.ID).Msg("orphan delete failed")
			continue
		}
		r.log.Warn().Str("ride_id", ride.ID).Msg("deleted orphaned ride")
	}
}

// flush writes buffered track points as one batch.
func (r *Recorder) flush() {
	if len(r.pending) == 0 {
		return
	}
	if err := r.rides.AppendTrackPoints(r.pending); err != nil {
		// In-memory state stays authoritative; the points are retried with
		// the next flush.
		r.log.Error().Err(err).Int("count", len(r.pending)).Msg("track point flush failed")
		return
	}
	r.pending = r.pending[:0]
}

// persistIfChanged writes the state snapshot when a fix-driven transition
// (auto-pause, auto-resume) happened.
func (r *Recorder) persistIfChanged(before models.RecordingState) {
	if r.machine.State() != before {
		r.flush()
		r.persistState()
	}
}

// persistState writes the state snapshot. A failure is logged, never fatal:
// the in-memory state remains the source of truth and the next transition
// retries the write.
func (r *Recorder) persistState() {
	if err := r.states.Put(r.machine.State()); err != nil {
		r.log.Error().Err(err).Msg("state persist failed")
	}
}

func (r *Recorder) snapshot() Snapshot {
	return Snapshot{State: r.machine.State(), Session: r.machine.Session()}
}

func (r *Recorder) nowMillis() int64 {
	return r.clock().UnixMilli()
}

// do submits an action to the event loop and waits for the reply, so the
// caller observes the state transition only after its persistence write has
// been issued.
func (r *Recorder) do(ctx context.Context, kind actionKind) (actionReply, error) {
	req := actionRequest{kind: kind, reply: make(chan actionReply, 1)}
	select {
	case r.actions <- req:
	case <-r.done:
		return actionReply{}, ErrNotRunning
	case <-ctx.Done():
		return actionReply{}, ctx.Err()
	}
	select {
	case reply := <-req.reply:
		return reply, reply.err
	case <-ctx.Done():
		return actionReply{}, ctx.Err()
	}
}

// StartRide begins a new recording session.
func (r *Recorder) StartRide(ctx context.Context) (Snapshot, error) {
	reply, err := r.do(ctx, actionStart)
	return reply.snapshot, err
}

// PauseRide pauses the active session at the user's request.
func (r *Recorder) PauseRide(ctx context.Context) (Snapshot, error) {
	reply, err := r.do(ctx, actionPause)
	return reply.snapshot, err
}

// ResumeRide ends a manual pause.
func (r *Recorder) ResumeRide(ctx context.Context) (Snapshot, error) {
	reply, err := r.do(ctx, actionResume)
	return reply.snapshot, err
}

// StopRide finalizes the active session and returns the typed outcome.
func (r *Recorder) StopRide(ctx context.Context) (StopResult, error) {
	reply, err := r.do(ctx, actionStop)
	if err != nil {
		return StopResult{}, err
	}
	return *reply.stop, nil
}

// SaveRide confirms a stopped ride and resolves the engine to idle.
func (r *Recorder) SaveRide(ctx context.Context) (Snapshot, error) {
	reply, err := r.do(ctx, actionSave)
	return reply.snapshot, err
}

// DiscardRide deletes the current ride and resets to idle.
func (r *Recorder) DiscardRide(ctx context.Context) (Snapshot, error) {
	reply, err := r.do(ctx, actionDiscard)
	return reply.snapshot, err
}

// Snapshot returns the current state and session for the UI to observe.
func (r *Recorder) Snapshot(ctx context.Context) (Snapshot, error) {
	reply, err := r.do(ctx, actionSnapshot)
	return reply.snapshot, err
}
