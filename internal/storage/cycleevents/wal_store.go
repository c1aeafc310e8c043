// Package cycleevents persists dashboard-visible cycle events in a WAL.
package cycleevents

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/vadiminshakov/gowal"
)

const (
	defaultEventDir   = "./wal/cycle"
	eventSegmentLimit = 1000
	eventMaxSegments  = 100
	eventKeyPrefix    = "cycle_event_"
)

// WALStore persists cycle events for the dashboard stream.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed event store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultEventDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "events_",
		SegmentThreshold: eventSegmentLimit,
		MaxSegments:      eventMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init cycle event WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends one cycle event to the WAL.
func (s *WALStore) Save(event domain.CycleEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("cycle event store is not initialized")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal cycle event")
	}

	key := eventKeyPrefix + string(event.Type)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all cycle events written after the provided index.
func (s *WALStore) EventsAfter(index uint64) ([]domain.CycleEventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("cycle event store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.CycleEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, eventKeyPrefix) {
			continue
		}
		var event domain.CycleEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode cycle event")
		}
		records = append(records, domain.CycleEventRecord{
			Index: idx,
			Event: event,
		})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("cycle event store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
