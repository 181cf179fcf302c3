package statestore

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/velotrack/rides-backend-go/internal/logger"
	"github.com/velotrack/rides-backend-go/internal/models"
)

// stateKey holds the single RecordingState snapshot. Exactly one recording
// session exists per device, so one key is all there is.
var stateKey = []byte("recorder:state")

// Store persists the recording engine's state snapshot in badger so the
// engine can recover after the process is killed mid-ride.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (or creates) the badger database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, log: logger.WithComponent("statestore")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put writes the state snapshot. The badger transaction gives the write its
// all-or-nothing property.
func (s *Store) Put(state models.RecordingState) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey, buf)
	})
}

// Get reads the last persisted state. A missing or corrupt value yields the
// idle state; Get never returns an error because recovery must not fail on
// bad persisted data.
func (s *Store) Get() models.RecordingState {
	var out models.RecordingState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			s.log.Warn().Err(err).Msg("state read failed, defaulting to idle")
		}
		return models.IdleState()
	}
	if err := out.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("persisted state invalid, defaulting to idle")
		return models.IdleState()
	}
	return out
}

// Clear removes the persisted snapshot.
func (s *Store) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(stateKey)
	})
}
