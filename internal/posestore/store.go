// Package posestore keeps the ordered list of saved camera poses and syncs it
// with one storage backend.
package posestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/viewvolt/extension/internal/storage"
	"github.com/viewvolt/extension/pkg/core"
)

const instrumentationName = "github.com/viewvolt/extension/internal/posestore"

// quarantineLayout formats the suffix of a quarantined file.
const quarantineLayout = "20060102_150405"

// Match is one search hit. Index refers to the unfiltered sequence.
type Match struct {
	Index  int
	Record core.PoseRecord
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithOnChange registers fn to run after every successful Load or mutation
// with the new record count. It runs without the store lock held.
func WithOnChange(fn func(count int)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// WithClock sets the time source used to name quarantined files.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the in-memory, insertion-ordered list of pose records plus its backend.
// Mutations never persist on their own; callers follow each one with Save.
type Store struct {
	mu      sync.RWMutex
	backend storage.Backend
	records []core.PoseRecord

	// quarantine is set after Load found an unreadable file. The next Save moves
	// that file aside before writing so its bytes survive.
	quarantine bool

	now      func() time.Time
	log      *slog.Logger
	ops      metric.Int64Counter
	onChange func(count int)
}

// New creates an empty store bound to backend. Call Load to read persisted records.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ops, err := otel.Meter(instrumentationName).Int64Counter(
		"posestore.operations",
		metric.WithDescription("Pose store operations by kind and result"),
	)
	if err != nil {
		s.log.Warn("Failed to create pose store counter", "error", err)
		ops = noop.Int64Counter{}
	}
	s.ops = ops

	return s
}

// Path returns the backing location.
func (s *Store) Path() string {
	return s.backend.Path()
}

// Load replaces the in-memory records with the persisted ones. A missing file
// yields an empty store.
func (s *Store) Load() (err error) {
	defer func() { s.observe("load", err) }()

	records, err := s.backend.Read()
	switch {
	case errors.Is(err, storage.ErrNotExist):
		records = nil
	case errors.Is(err, storage.ErrDecode):
		s.markQuarantine()
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := validateLoaded(records); err != nil {
		s.markQuarantine()
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, s.backend.Path(), err)
	}

	s.mu.Lock()
	s.records = records
	s.quarantine = false
	s.mu.Unlock()

	s.log.Info("Loaded view positions", "path", s.backend.Path(), "count", len(records))
	return nil
}

func (s *Store) markQuarantine() {
	s.mu.Lock()
	s.quarantine = true
	s.mu.Unlock()
}

func validateLoaded(records []core.PoseRecord) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if err := core.ValidateName(r.Name); err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
		folded := core.FoldName(r.Name)
		if j, ok := seen[folded]; ok {
			return fmt.Errorf("positions %d and %d: %w: %q", j, i, ErrDuplicateName, r.Name)
		}
		seen[folded] = i
	}
	return nil
}

// Save writes every record to the backend, replacing its previous content.
// On failure the in-memory records and the previous file content are unchanged.
// Logging happens after the lock is released so loggers may read the store.
func (s *Store) Save() (err error) {
	defer func() { s.observe("save", err) }()

	s.mu.Lock()
	movedTo, count, err := s.saveLocked()
	s.mu.Unlock()

	if movedTo != "" {
		s.log.Warn("Moved unreadable view positions file aside", "path", s.backend.Path(), "movedTo", movedTo)
	}
	if err != nil {
		return err
	}
	s.log.Debug("Saved view positions", "path", s.backend.Path(), "count", count)
	return nil
}

// saveLocked quarantines a pending unreadable file, then writes a snapshot.
// Once the file is moved aside the flag stays cleared even if the write fails:
// the backing path is gone and the old bytes live at movedTo.
func (s *Store) saveLocked() (movedTo string, count int, err error) {
	if s.quarantine {
		dst, err := s.backend.Quarantine(s.now().Format(quarantineLayout))
		if err != nil {
			return "", 0, fmt.Errorf("%w: %w", ErrIO, err)
		}
		movedTo = dst
		s.quarantine = false
	}

	snapshot := make([]core.PoseRecord, len(s.records))
	copy(snapshot, s.records)
	if err := s.backend.Write(snapshot); err != nil {
		return movedTo, 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return movedTo, len(snapshot), nil
}

// Add appends record unless its name collides, ignoring case, with an existing one.
func (s *Store) Add(record core.PoseRecord) (err error) {
	defer func() { s.observe("add", err) }()

	if err := core.ValidateName(record.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOfLocked(record.Name, -1); i >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateName, record.Name)
	}
	s.records = append(s.records, record)
	return nil
}

// Remove deletes the record at index; later records shift down by one.
func (s *Store) Remove(index int) (err error) {
	defer func() { s.observe("remove", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndexLocked(index); err != nil {
		return err
	}
	s.records = append(s.records[:index], s.records[index+1:]...)
	return nil
}

// Rename changes only the name of the record at index. Renaming to the current
// name is a no-op; a collision with any other record fails.
func (s *Store) Rename(index int, newName string) (err error) {
	defer func() { s.observe("rename", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndexLocked(index); err != nil {
		return err
	}
	if err := core.ValidateName(newName); err != nil {
		return err
	}
	if s.records[index].Name == newName {
		return nil
	}
	if i := s.indexOfLocked(newName, index); i >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	s.records[index].Name = newName
	return nil
}

// Search returns the records whose name contains query, ignoring case, in
// stored order. An empty query matches everything.
func (s *Store) Search(query string) []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folded := core.FoldName(query)
	matches := make([]Match, 0, len(s.records))
	for i, r := range s.records {
		if folded == "" || strings.Contains(core.FoldName(r.Name), folded) {
			matches = append(matches, Match{Index: i, Record: r})
		}
	}
	return matches
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record at index.
func (s *Store) Get(index int) (core.PoseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkIndexLocked(index); err != nil {
		return core.PoseRecord{}, err
	}
	return s.records[index], nil
}

// Records returns a copy of all records in stored order.
func (s *Store) Records() []core.PoseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.PoseRecord, len(s.records))
	copy(out, s.records)
	return out
}

// UniqueName returns base if it is free, otherwise the first free "base (n)" for n >= 2.
func (s *Store) UniqueName(base string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.indexOfLocked(base, -1) < 0 {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if s.indexOfLocked(candidate, -1) < 0 {
			return candidate
		}
	}
}

// indexOfLocked finds a record whose name collides with name, skipping index skip.
func (s *Store) indexOfLocked(name string, skip int) int {
	for i, r := range s.records {
		if i != skip && core.SameName(r.Name, name) {
			return i
		}
	}
	return -1
}

func (s *Store) checkIndexLocked(index int) error {
	if index < 0 || index >= len(s.records) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.records))
	}
	return nil
}

// observe runs from deferred calls, after the operation released the lock.
func (s *Store) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.ops.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result),
	))

	if err == nil && op != "save" && s.onChange != nil {
		s.onChange(s.Len())
	}
}
