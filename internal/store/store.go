package store

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"

	"mixtrack/internal/providers"
)

const millisPerDay = 24 * 60 * 60 * 1000

// Store is the durable half of the super-property state: one mutex-guarded
// in-memory Record mirrored to a JSON file. Every mutation clones the record
// while still holding the lock and hands the snapshot to a detached writer
// goroutine, so the record lock is never held across file I/O. Snapshots carry
// a generation and writers apply them in order, skipping stale ones, so a slow
// save can never clobber a newer state. Load and save failures degrade to a
// default record and a log line; they are never surfaced to callers.
type Store struct {
	path    string
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	mu  sync.RWMutex
	rec *Record
	gen uint64

	fileMu   sync.Mutex
	wroteGen uint64

	saves  sync.WaitGroup
	closed atomic.Bool
}

func NewStore(path string, logger providers.Logger, metrics providers.MetricsProviderInterface) *Store {
	return &Store{
		path:    path,
		logger:  logger,
		metrics: metrics,
		rec:     loadRecord(path, logger),
	}
}

func loadRecord(path string, logger providers.Logger) *Record {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf(providers.TypePersist, "failed to read %s, starting fresh: %s", path, err)
		}
		return defaultRecord()
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Warnf(providers.TypePersist, "failed to parse %s, starting fresh: %s", path, err)
		return defaultRecord()
	}
	if rec.expired(nowMillis()) {
		return defaultRecord()
	}
	if rec.EventTimers == nil {
		rec.EventTimers = make(map[string]int64)
	}
	if rec.Properties == nil {
		rec.Properties = make(map[string]any)
	}
	return &rec
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// defaultMatches reports whether an existing value equals the RegisterOnce
// default. Property values come from JSON and may hold maps or slices, which
// plain == would panic on.
func defaultMatches(existing, defaultValue any) bool {
	return defaultValue != nil && reflect.DeepEqual(existing, defaultValue)
}

// snapshotLocked clones the record and stamps it with the next generation.
func (s *Store) snapshotLocked() (*Record, uint64) {
	s.gen++
	return s.rec.clone(), s.gen
}

// Register merges props into the persisted properties. Expiry handling: a nil
// days leaves the current expiry untouched, zero clears it, a positive value
// extends it to now+days only when that is later than the current expiry or
// the current expiry has already passed.
func (s *Store) Register(props map[string]any, days *int) {
	s.mu.Lock()
	for k, v := range props {
		s.rec.Properties[k] = v
	}
	s.applyExpiryLocked(days)
	snap, gen := s.snapshotLocked()
	s.mu.Unlock()

	s.saveAsync(snap, gen)
}

// RegisterOnce sets each key only if it is absent, or if its current value
// equals defaultValue (when non-nil).
func (s *Store) RegisterOnce(props map[string]any, defaultValue any, days *int) {
	s.mu.Lock()
	changed := false
	for k, v := range props {
		existing, ok := s.rec.Properties[k]
		if !ok || defaultMatches(existing, defaultValue) {
			s.rec.Properties[k] = v
			changed = true
		}
	}
	if changed {
		s.applyExpiryLocked(days)
	}
	snap, gen := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.saveAsync(snap, gen)
	}
}

func (s *Store) applyExpiryLocked(days *int) {
	if days == nil {
		return
	}
	if *days <= 0 {
		s.rec.ExpiresAt = 0
		return
	}
	now := nowMillis()
	expiresAt := now + int64(*days)*millisPerDay
	if s.rec.ExpiresAt == 0 || expiresAt > s.rec.ExpiresAt || now >= s.rec.ExpiresAt {
		s.rec.ExpiresAt = expiresAt
	}
}

func (s *Store) Unregister(key string) {
	s.mu.Lock()
	_, changed := s.rec.Properties[key]
	delete(s.rec.Properties, key)
	snap, gen := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.saveAsync(snap, gen)
	}
}

// Properties returns a copy of the persisted properties, or an empty map when
// the store has expired.
func (s *Store) Properties() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.expired(nowMillis()) {
		return make(map[string]any)
	}
	out := make(map[string]any, len(s.rec.Properties))
	for k, v := range s.rec.Properties {
		out[k] = v
	}
	return out
}

func (s *Store) Property(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.expired(nowMillis()) {
		return nil, false
	}
	v, ok := s.rec.Properties[key]
	return v, ok
}

func (s *Store) DistinctID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.DistinctID, s.rec.DistinctID != ""
}

// SetDistinctID stores the identity; an empty id clears it.
func (s *Store) SetDistinctID(id string) {
	s.mu.Lock()
	s.rec.DistinctID = id
	snap, gen := s.snapshotLocked()
	s.mu.Unlock()

	s.saveAsync(snap, gen)
}

func (s *Store) Alias() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Alias, s.rec.Alias != ""
}

// SetAlias records the pending alias; an empty alias clears it.
func (s *Store) SetAlias(alias string) {
	s.mu.Lock()
	s.rec.Alias = alias
	snap, gen := s.snapshotLocked()
	s.mu.Unlock()

	s.saveAsync(snap, gen)
}

// SetEventTimer records the start timestamp (millis) for a named event,
// overwriting any open timer with the same name.
func (s *Store) SetEventTimer(event string, startMillis int64) {
	s.mu.Lock()
	s.rec.EventTimers[event] = startMillis
	snap, gen := s.snapshotLocked()
	s.mu.Unlock()

	s.saveAsync(snap, gen)
}

// RemoveEventTimer consumes and returns the open timer for event, if any.
func (s *Store) RemoveEventTimer(event string) (int64, bool) {
	s.mu.Lock()
	start, ok := s.rec.EventTimers[event]
	delete(s.rec.EventTimers, event)
	snap, gen := s.snapshotLocked()
	s.mu.Unlock()

	if ok {
		s.saveAsync(snap, gen)
	}
	return start, ok
}

// Clear resets the record to its default state and deletes the backing file.
func (s *Store) Clear() {
	s.mu.Lock()
	s.rec = defaultRecord()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.removeAsync(gen)
}

// Close waits for all in-flight saves to finish. The store must not be
// mutated afterwards.
func (s *Store) Close() {
	s.closed.Store(true)
	s.saves.Wait()
}

func (s *Store) saveAsync(snap *Record, gen uint64) {
	if s.closed.Load() {
		return
	}
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		s.fileMu.Lock()
		defer s.fileMu.Unlock()
		if gen <= s.wroteGen {
			return
		}
		s.wroteGen = gen
		start := time.Now()
		if err := s.write(snap); err != nil {
			s.metrics.IncPersistenceErrors()
			s.logger.Errorf(providers.TypePersist, "failed to save %s: %s", s.path, err)
			return
		}
		s.metrics.ObservePersistenceDuration(time.Since(start))
	}()
}

func (s *Store) removeAsync(gen uint64) {
	if s.closed.Load() {
		return
	}
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		s.fileMu.Lock()
		defer s.fileMu.Unlock()
		if gen <= s.wroteGen {
			return
		}
		s.wroteGen = gen
		err := os.Remove(s.path)
		if err != nil && !os.IsNotExist(err) {
			s.metrics.IncPersistenceErrors()
			s.logger.Errorf(providers.TypePersist, "failed to delete %s on clear: %s", s.path, err)
		}
	}()
}

// write replaces the whole file via a temp file and rename so a crash can
// never leave a partially written record behind.
func (s *Store) write(snap *Record) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, s.path)
}
