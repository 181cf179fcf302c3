package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velotrack/rides-backend-go/internal/location"
	"github.com/velotrack/rides-backend-go/internal/models"
)

// fakeRideStore is a mutex-guarded in-memory RideStore. The event loop writes
// from its own goroutine while the test asserts, so every access locks.
type fakeRideStore struct {
	mu     sync.Mutex
	rides  map[string]models.RideSession
	points []models.TrackPoint
}

func newFakeRideStore() *fakeRideStore {
	return &fakeRideStore{rides: make(map[string]models.RideSession)}
}

func (f *fakeRideStore) CreateRide(ride *models.RideSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rides[ride.ID] = *ride
	return nil
}

func (f *fakeRideStore) UpdateRide(ride *models.RideSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rides[ride.ID] = *ride
	return nil
}

func (f *fakeRideStore) GetRideByID(id string) (*models.RideSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return nil, nil
	}
	return &ride, nil
}

func (f *fakeRideStore) GetIncompleteRides() ([]models.RideSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var open []models.RideSession
	for _, ride := range f.rides {
		if ride.IsOpen() {
			open = append(open, ride)
		}
	}
	return open, nil
}

func (f *fakeRideStore) DeleteRide(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rides, id)
	return nil
}

func (f *fakeRideStore) AppendTrackPoints(points []models.TrackPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeRideStore) ride(id string) (models.RideSession, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	return ride, ok
}

func (f *fakeRideStore) pointCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points)
}

type fakeStateStore struct {
	mu    sync.Mutex
	state models.RecordingState
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{state: models.IdleState()}
}

func (f *fakeStateStore) Put(state models.RecordingState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	return nil
}

func (f *fakeStateStore) Get() models.RecordingState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeStateStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = models.IdleState()
	return nil
}

// fakeClock is an adjustable clock shared with the recorder.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorderFixture struct {
	recorder *Recorder
	rides    *fakeRideStore
	states   *fakeStateStore
	source   *location.PushSource
	clock    *fakeClock
}

func newRecorderFixture(t *testing.T, cfg Config) *recorderFixture {
	t.Helper()

	f := &recorderFixture{
		rides:  newFakeRideStore(),
		states: newFakeStateStore(),
		source: location.NewPushSource(),
		clock:  newFakeClock(),
	}
	cfg.Clock = f.clock.Now
	if cfg.TickInterval == 0 {
		// Keep the real ticker out of the way; tests drive time explicitly.
		cfg.TickInterval = time.Hour
	}
	f.recorder = NewRecorder(cfg, f.rides, f.states, f.source)
	return f
}

func (f *recorderFixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.recorder.Start(context.Background()))
	t.Cleanup(f.recorder.Close)
}

func TestRecorder_StartRideCreatesAndPersists(t *testing.T) {
	f := newRecorderFixture(t, Config{})
	f.start(t)

	snap, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.PhaseRecording, snap.State.Phase)
	require.NotNil(t, snap.Session)

	_, ok := f.rides.ride(snap.Session.ID)
	assert.True(t, ok, "ride row created")
	assert.Equal(t, snap.State, f.states.Get(), "state snapshot persisted")

	// Second start conflicts.
	_, err = f.recorder.StartRide(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecorder_InvalidActionsWhileIdle(t *testing.T) {
	f := newRecorderFixture(t, Config{})
	f.start(t)

	_, err := f.recorder.PauseRide(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.recorder.ResumeRide(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.recorder.StopRide(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.recorder.SaveRide(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecorder_FixesFlushedAtBatchSize(t *testing.T) {
	f := newRecorderFixture(t, Config{FlushBatchSize: 3})
	f.start(t)

	_, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		fix := movingFix(int64(1000*(i+1)), 47.0, 8.0+float64(i)*0.0001)
		require.True(t, f.source.Publish(fix))
	}

	assert.Eventually(t, func() bool {
		return f.rides.pointCount() == 3
	}, time.Second, 5*time.Millisecond, "batch flushed after reaching FlushBatchSize")
}

func TestRecorder_PauseFlushesBufferedPoints(t *testing.T) {
	f := newRecorderFixture(t, Config{FlushBatchSize: 100})
	f.start(t)

	_, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)

	require.True(t, f.source.Publish(movingFix(1000, 47.0, 8.0)))
	require.True(t, f.source.Publish(movingFix(2000, 47.0, 8.0001)))

	// Wait until both fixes went through the machine; distance only moves
	// on the second one.
	assert.Eventually(t, func() bool {
		snap, err := f.recorder.Snapshot(context.Background())
		return err == nil && snap.Session != nil && snap.Session.DistanceMeters > 0
	}, time.Second, 5*time.Millisecond)

	f.clock.Advance(3 * time.Second)
	snap, err := f.recorder.PauseRide(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.PhaseManuallyPaused, snap.State.Phase)
	assert.Equal(t, 2, f.rides.pointCount())
	assert.Equal(t, models.PhaseManuallyPaused, f.states.Get().Phase)
}

func TestRecorder_StopTooShortAutoDiscards(t *testing.T) {
	f := newRecorderFixture(t, Config{})
	f.start(t)

	snap, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)
	rideID := snap.Session.ID

	f.clock.Advance(4999 * time.Millisecond)
	result, err := f.recorder.StopRide(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopTooShort, result.Status)
	assert.Equal(t, int64(4999), result.MovingMillis)
	_, ok := f.rides.ride(rideID)
	assert.False(t, ok, "too-short ride deleted")
	assert.Equal(t, models.PhaseIdle, f.states.Get().Phase)
}

func TestRecorder_StopSaveLifecycle(t *testing.T) {
	f := newRecorderFixture(t, Config{})
	f.start(t)

	snap, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)
	rideID := snap.Session.ID

	f.clock.Advance(10 * time.Second)
	result, err := f.recorder.StopRide(context.Background())
	require.NoError(t, err)
	require.Equal(t, StopSuccess, result.Status)
	require.NotNil(t, result.Session)
	assert.Equal(t, int64(10000), result.Session.ElapsedMillis)

	stored, ok := f.rides.ride(rideID)
	require.True(t, ok)
	require.NotNil(t, stored.EndTimeMillis)
	assert.Equal(t, int64(10000), *stored.EndTimeMillis)
	assert.Equal(t, models.PhaseStopped, f.states.Get().Phase)

	saved, err := f.recorder.SaveRide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PhaseIdle, saved.State.Phase)
	assert.Equal(t, models.PhaseIdle, f.states.Get().Phase)

	// The finalized ride survives the save.
	_, ok = f.rides.ride(rideID)
	assert.True(t, ok)
}

func TestRecorder_StopUnknownRide(t *testing.T) {
	f := newRecorderFixture(t, Config{})
	f.start(t)

	snap, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)

	// The ride disappears behind the engine's back.
	require.NoError(t, f.rides.DeleteRide(snap.Session.ID))

	f.clock.Advance(10 * time.Second)
	result, err := f.recorder.StopRide(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopRideNotFound, result.Status)
	idle, err := f.recorder.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PhaseIdle, idle.State.Phase)
}

func TestRecorder_DiscardDeletesRide(t *testing.T) {
	f := newRecorderFixture(t, Config{})
	f.start(t)

	snap, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)
	rideID := snap.Session.ID

	discarded, err := f.recorder.DiscardRide(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.PhaseIdle, discarded.State.Phase)
	_, ok := f.rides.ride(rideID)
	assert.False(t, ok)
	assert.Equal(t, models.PhaseIdle, f.states.Get().Phase)
}

func TestRecorder_RecoveryResumesSameVariant(t *testing.T) {
	f := newRecorderFixture(t, Config{})

	open := models.RideSession{
		ID:              "ride-crashed",
		StartTimeMillis: 0,
		DistanceMeters:  1234.5,
	}
	require.NoError(t, f.rides.CreateRide(&open))
	require.NoError(t, f.states.Put(models.RecordingState{
		Phase:                models.PhaseManuallyPaused,
		RideID:               "ride-crashed",
		PauseStartedAtMillis: 30000,
	}))

	f.start(t)

	snap, err := f.recorder.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PhaseManuallyPaused, snap.State.Phase)
	assert.Equal(t, "ride-crashed", snap.State.RideID)
	assert.Equal(t, int64(30000), snap.State.PauseStartedAtMillis)
	require.NotNil(t, snap.Session)
	assert.InDelta(t, 1234.5, snap.Session.DistanceMeters, 0.001)

	// The downtime is credited to the manual pause bucket at resume.
	f.clock.Advance(90 * time.Second)
	resumed, err := f.recorder.ResumeRide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(60000), resumed.Session.ManualPausedMillis)
}

func TestRecorder_RecoveryStoppedAwaitsDecision(t *testing.T) {
	f := newRecorderFixture(t, Config{})

	end := int64(60000)
	closed := models.RideSession{
		ID:              "ride-stopped",
		StartTimeMillis: 0,
		EndTimeMillis:   &end,
		ElapsedMillis:   60000,
		MovingMillis:    60000,
	}
	require.NoError(t, f.rides.CreateRide(&closed))
	require.NoError(t, f.states.Put(models.RecordingState{
		Phase:  models.PhaseStopped,
		RideID: "ride-stopped",
	}))

	f.start(t)

	snap, err := f.recorder.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.PhaseStopped, snap.State.Phase)

	// Save is still possible after the restart.
	saved, err := f.recorder.SaveRide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PhaseIdle, saved.State.Phase)
	_, ok := f.rides.ride("ride-stopped")
	assert.True(t, ok)
}

func TestRecorder_RecoveryUnknownRideResets(t *testing.T) {
	f := newRecorderFixture(t, Config{})

	require.NoError(t, f.states.Put(models.RecordingState{
		Phase:  models.PhaseRecording,
		RideID: "ride-gone",
	}))

	f.start(t)

	snap, err := f.recorder.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PhaseIdle, snap.State.Phase)
	assert.Equal(t, models.PhaseIdle, f.states.Get().Phase)
}

func TestRecorder_RecoverySweepsOrphans(t *testing.T) {
	f := newRecorderFixture(t, Config{})

	orphan := models.RideSession{ID: "ride-orphan", StartTimeMillis: 0}
	require.NoError(t, f.rides.CreateRide(&orphan))

	kept := models.RideSession{ID: "ride-kept", StartTimeMillis: 0}
	require.NoError(t, f.rides.CreateRide(&kept))
	require.NoError(t, f.states.Put(models.RecordingState{
		Phase:  models.PhaseRecording,
		RideID: "ride-kept",
	}))

	f.start(t)

	_, ok := f.rides.ride("ride-orphan")
	assert.False(t, ok, "unreferenced open ride swept")
	_, ok = f.rides.ride("ride-kept")
	assert.True(t, ok, "recovered ride kept")

	snap, err := f.recorder.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ride-kept", snap.State.RideID)
}

func TestRecorder_AutoPauseTransitionPersisted(t *testing.T) {
	f := newRecorderFixture(t, Config{
		AutoPause: models.AutoPauseConfig{Enabled: true, ThresholdSeconds: 1},
	})
	f.start(t)

	_, err := f.recorder.StartRide(context.Background())
	require.NoError(t, err)

	require.True(t, f.source.Publish(stationaryFix(1000)))
	require.True(t, f.source.Publish(stationaryFix(2000)))

	assert.Eventually(t, func() bool {
		return f.states.Get().Phase == models.PhaseAutoPaused
	}, time.Second, 5*time.Millisecond, "auto-pause transition persisted")

	require.True(t, f.source.Publish(movingFix(5000, 47.0, 8.001)))
	assert.Eventually(t, func() bool {
		return f.states.Get().Phase == models.PhaseRecording
	}, time.Second, 5*time.Millisecond, "auto-resume transition persisted")
}

func TestRecorder_ActionsAfterClose(t *testing.T) {
	f := newRecorderFixture(t, Config{})
	require.NoError(t, f.recorder.Start(context.Background()))
	f.recorder.Close()

	_, err := f.recorder.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
}
