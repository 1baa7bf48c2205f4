package app

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/viewvolt/extension/internal/storage"
	"github.com/viewvolt/extension/internal/storage/file"
	"github.com/viewvolt/extension/internal/storage/memory"
	sqlitestorage "github.com/viewvolt/extension/internal/storage/sqlite"
)

// Store formats accepted by store.format.
const (
	FormatXML    = "xml"
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
	FormatMemory = "memory"
)

// ExtensionFor returns the default file extension for format.
func ExtensionFor(format string) (string, error) {
	switch format {
	case FormatSQLite:
		return sqlitestorage.Extension, nil
	case FormatMemory:
		return "", nil
	default:
		codec, err := file.CodecFor(format)
		if err != nil {
			return "", err
		}
		return codec.Extension(), nil
	}
}

// NewBackend creates a storage backend based on configuration
func NewBackend(format, path string, fsys afero.Fs, log zerolog.Logger) (storage.Backend, error) {
	switch format {
	case FormatSQLite:
		return sqlitestorage.New(path, log), nil
	case FormatMemory:
		return memory.New(path), nil
	default:
		codec, err := file.CodecFor(format)
		if err != nil {
			return nil, fmt.Errorf("creating store backend: %w", err)
		}
		return file.New(fsys, path, codec), nil
	}
}
