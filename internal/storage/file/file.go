// Package file implements storage.Backend as a single document on a filesystem,
// encoded by a pluggable Codec and replaced atomically on every write.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/viewvolt/extension/internal/storage"
	"github.com/viewvolt/extension/pkg/core"
)

// Backend stores the record list in one file.
type Backend struct {
	fs    afero.Fs
	path  string
	codec Codec
}

// New creates a file backend. fs is usually afero.NewOsFs().
func New(fsys afero.Fs, path string, codec Codec) *Backend {
	return &Backend{
		fs:    fsys,
		path:  filepath.Clean(path),
		codec: codec,
	}
}

// Path implements storage.Backend.
func (b *Backend) Path() string {
	return b.path
}

// Codec returns the codec the backend was built with.
func (b *Backend) Codec() Codec {
	return b.codec
}

// Read implements storage.Backend.
func (b *Backend) Read() ([]core.PoseRecord, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotExist
		}
		return nil, fmt.Errorf("reading %s: %w", b.path, err)
	}

	positions, err := b.codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrDecode, b.path, err)
	}
	return storage.ToRecords(positions), nil
}

// Write implements storage.Backend. The new content goes to a temporary file in the
// same directory which is then renamed over the backing file.
func (b *Backend) Write(records []core.PoseRecord) (err error) {
	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(b.fs, dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = b.fs.Remove(tmpName)
		}
	}()

	if err := b.codec.Encode(tmp, storage.FromRecords(records)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := b.fs.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}
	return nil
}

// Quarantine implements storage.Backend.
func (b *Backend) Quarantine(suffix string) (string, error) {
	if _, err := b.fs.Stat(b.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("checking %s: %w", b.path, err)
	}
	dst := storage.QuarantinePath(b.path, suffix)
	if err := b.fs.Rename(b.path, dst); err != nil {
		return "", fmt.Errorf("moving %s aside: %w", b.path, err)
	}
	return dst, nil
}
