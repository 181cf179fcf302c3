// Package location abstracts the GPS fix source behind a cancellable
// subscription so the recording engine can consume fixes, ticks and user
// actions uniformly from one event loop.
package location

import (
	"context"
	"errors"

	"github.com/velotrack/rides-backend-go/internal/models"
)

// Failure modes a provider can surface. The engine converts either into a
// stopped subscription; neither is ever propagated as a crash.
var (
	ErrPermissionDenied    = errors.New("location: permission denied")
	ErrProviderUnavailable = errors.New("location: provider unavailable")
)

// Source is a push-based stream of raw GPS fixes.
//
// Subscribe returns a channel that delivers fixes until Unsubscribe is called
// or the context is cancelled, after which the channel is closed. A source
// supports one active subscription at a time.
type Source interface {
	Subscribe(ctx context.Context) (<-chan models.LocationFix, error)
	Unsubscribe()
}
