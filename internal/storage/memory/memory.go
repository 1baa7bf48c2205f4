// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/viewvolt/extension/internal/storage"
	"github.com/viewvolt/extension/pkg/core"
)

// Backend keeps the persisted record list in memory. It backs the "memory"
// store format, where poses live only for the session, and lets tests inject
// read and write failures.
type Backend struct {
	mu sync.Mutex

	path    string
	data    []storage.ViewPosition
	exists  bool
	corrupt bool

	// aside holds quarantined copies keyed by their would-be path.
	aside map[string][]storage.ViewPosition

	readErr       error
	writeErr      error
	quarantineErr error

	writes int
}

// New creates an empty memory backend. path is only reported, never touched.
func New(path string) *Backend {
	return &Backend{
		path:  path,
		aside: make(map[string][]storage.ViewPosition),
	}
}

// Path implements storage.Backend.
func (b *Backend) Path() string {
	return b.path
}

// Read implements storage.Backend.
func (b *Backend) Read() ([]core.PoseRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readErr != nil {
		return nil, b.readErr
	}
	if !b.exists {
		return nil, storage.ErrNotExist
	}
	if b.corrupt {
		return nil, storage.ErrDecode
	}
	return storage.ToRecords(b.data), nil
}

// Write implements storage.Backend.
func (b *Backend) Write(records []core.PoseRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writeErr != nil {
		return b.writeErr
	}
	b.data = storage.FromRecords(records)
	b.exists = true
	b.corrupt = false
	b.writes++
	return nil
}

// Quarantine implements storage.Backend.
func (b *Backend) Quarantine(suffix string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.quarantineErr != nil {
		return "", b.quarantineErr
	}
	if !b.exists {
		return "", nil
	}
	dst := storage.QuarantinePath(b.path, suffix)
	b.aside[dst] = b.data
	b.data = nil
	b.exists = false
	b.corrupt = false
	return dst, nil
}

// Seed replaces the persisted content as if it had been written earlier.
func (b *Backend) Seed(records []core.PoseRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = storage.FromRecords(records)
	b.exists = true
	b.corrupt = false
}

// Corrupt marks the persisted content as unreadable until the next Write.
func (b *Backend) Corrupt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exists = true
	b.corrupt = true
}

// FailReads makes Read return err; nil clears it.
func (b *Backend) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

// FailWrites makes Write return err; nil clears it.
func (b *Backend) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

// FailQuarantine makes Quarantine return err; nil clears it.
func (b *Backend) FailQuarantine(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quarantineErr = err
}

// Persisted returns what the last successful Write stored.
func (b *Backend) Persisted() []core.PoseRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return storage.ToRecords(b.data)
}

// Writes counts successful writes.
func (b *Backend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Aside returns the quarantined copy stored under dst.
func (b *Backend) Aside(dst string) ([]core.PoseRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.aside[dst]
	if !ok {
		return nil, false
	}
	return storage.ToRecords(data), true
}
