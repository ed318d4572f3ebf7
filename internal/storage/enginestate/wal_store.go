// Package enginestate persists the engine's durable state in a write-ahead
// log. The latest record wins on recovery.
package enginestate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

const (
	stateKey            = "engine_state"
	walSegmentThreshold = 1000
	walMaxSegments      = 10
	walDirPermissions   = 0o755
)

// Store is a gowal backed engine state store scoped to one pair.
type Store struct {
	wal *gowal.Wal
}

// NewStore opens (or creates) the WAL under dir for the given pair.
func NewStore(dir string, pair domain.Pair) (*Store, error) {
	walDir := filepath.Join(dir, pair.String())
	if err := os.MkdirAll(walDir, walDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure state directory %s", walDir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              walDir,
		Prefix:           "state_",
		SegmentThreshold: walSegmentThreshold,
		MaxSegments:      walMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open engine state WAL")
	}

	return &Store{wal: wal}, nil
}

// Load replays the WAL and returns the last saved state, or nil when the
// store holds none. A record that cannot be decoded is an error: the engine
// refuses to run on unknown state.
func (s *Store) Load() (*domain.EngineState, error) {
	var state *domain.EngineState

	for msg := range s.wal.Iterator() {
		if msg.Key != stateKey {
			continue
		}
		decoded := domain.NewEngineState()
		if err := json.Unmarshal(msg.Value, decoded); err != nil {
			return nil, errors.Wrap(err, "corrupt engine state record")
		}
		state = decoded
	}

	if state != nil && state.LastSampleAt == nil {
		state.LastSampleAt = make(map[string]time.Time)
	}
	return state, nil
}

// Save appends the state to the WAL.
func (s *Store) Save(state *domain.EngineState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "failed to marshal engine state")
	}

	if err := s.wal.Write(s.wal.CurrentIndex()+1, stateKey, data); err != nil {
		return errors.Wrap(err, "failed to persist engine state")
	}
	return nil
}

// Close releases the underlying WAL.
func (s *Store) Close() error {
	return s.wal.Close()
}
