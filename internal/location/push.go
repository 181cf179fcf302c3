package location

import (
	"context"
	"sync"

	"github.com/velotrack/rides-backend-go/internal/models"
)

// DefaultPushBuffer is the fix buffer size of a PushSource. At one fix per
// second this is over a minute of backlog before anything is dropped.
const DefaultPushBuffer = 64

// PushSource is a Source fed by an external producer, e.g. the HTTP fix
// ingest handler. When the buffer is full the oldest fix is dropped: for
// live tracking the newest position wins.
type PushSource struct {
	mu     sync.Mutex
	ch     chan models.LocationFix
	cancel context.CancelFunc
}

// NewPushSource creates an unsubscribed push source.
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Subscribe starts delivery. Only one subscription may be active.
func (s *PushSource) Subscribe(ctx context.Context) (<-chan models.LocationFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil {
		return nil, ErrProviderUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan models.LocationFix, DefaultPushBuffer)
	s.ch = ch
	s.cancel = cancel

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.ch == ch {
			close(s.ch)
			s.ch = nil
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	return ch, nil
}

// Unsubscribe stops delivery and closes the subscription channel.
func (s *PushSource) Unsubscribe() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Publish offers a fix to the active subscription. Fixes published while
// unsubscribed are discarded. Returns whether the fix was accepted.
func (s *PushSource) Publish(fix models.LocationFix) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch == nil {
		return false
	}
	for {
		select {
		case s.ch <- fix:
			return true
		default:
			// Buffer full: drop the oldest fix and retry.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
