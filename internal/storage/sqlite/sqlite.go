// Package sqlitestorage implements storage.Backend as a single-table SQLite file.
// Each write builds a fresh database next to the backing file and renames it
// into place, so an interrupted write never leaves a half-written table behind.
package sqlitestorage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/viewvolt/extension/internal/database"
	"github.com/viewvolt/extension/internal/storage"
	"github.com/viewvolt/extension/pkg/core"
)

// Extension is the default file extension for SQLite backing files.
const Extension = ".db"

// positionRow is one record; Position gives the stored order starting at 1.
type positionRow struct {
	Position  int     `gorm:"primaryKey;autoIncrement:false"`
	Name      string  `gorm:"not null"`
	EyeX      float64 `gorm:"not null"`
	EyeY      float64 `gorm:"not null"`
	EyeZ      float64 `gorm:"not null"`
	UpX       float64 `gorm:"not null"`
	UpY       float64 `gorm:"not null"`
	UpZ       float64 `gorm:"not null"`
	ForwardX  float64 `gorm:"not null"`
	ForwardY  float64 `gorm:"not null"`
	ForwardZ  float64 `gorm:"not null"`
	CreatedAt string  `gorm:"not null;autoCreateTime:false"` // RFC 3339 with nanoseconds
}

func (positionRow) TableName() string {
	return "view_positions"
}

// Backend stores records in a SQLite file.
type Backend struct {
	path string
	log  zerolog.Logger
}

// New creates a SQLite backend for path.
func New(path string, log zerolog.Logger) *Backend {
	return &Backend{
		path: filepath.Clean(path),
		log:  log,
	}
}

// Path implements storage.Backend.
func (b *Backend) Path() string {
	return b.path
}

// Read implements storage.Backend.
func (b *Backend) Read() ([]core.PoseRecord, error) {
	f, err := os.Open(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotExist
		}
		return nil, fmt.Errorf("reading %s: %w", b.path, err)
	}
	_ = f.Close()

	db, err := database.OpenSqlite(b.path, b.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrDecode, b.path, err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			b.log.Warn().Err(err).Str("path", b.path).Msg("Failed to close SQLite DB")
		}
	}()

	rows, err := readRows(db)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrDecode, b.path, err)
	}

	records := make([]core.PoseRecord, len(rows))
	for i, row := range rows {
		createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: position %d: invalid created_at %q", storage.ErrDecode, b.path, row.Position, row.CreatedAt)
		}
		records[i] = storage.ViewPosition{
			Name:      row.Name,
			EyeX:      row.EyeX,
			EyeY:      row.EyeY,
			EyeZ:      row.EyeZ,
			UpX:       row.UpX,
			UpY:       row.UpY,
			UpZ:       row.UpZ,
			ForwardX:  row.ForwardX,
			ForwardY:  row.ForwardY,
			ForwardZ:  row.ForwardZ,
			CreatedAt: createdAt,
		}.Record()
	}
	return records, nil
}

func readRows(db *gorm.DB) ([]positionRow, error) {
	version, err := database.UserVersion(db)
	if err != nil {
		return nil, err
	}
	if version < 1 || version > storage.SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", version)
	}
	if !db.Migrator().HasTable(&positionRow{}) {
		return nil, fmt.Errorf("table %s missing", positionRow{}.TableName())
	}

	var rows []positionRow
	if err := db.Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return rows, nil
}

// Write implements storage.Backend.
func (b *Backend) Write(records []core.PoseRecord) (err error) {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := writeDB(tmpName, records, b.log); err != nil {
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}
	return nil
}

func writeDB(path string, records []core.PoseRecord, log zerolog.Logger) (err error) {
	db, err := database.OpenSqlite(path, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := database.Close(db); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := database.SetUserVersion(db, storage.SchemaVersion); err != nil {
		return err
	}
	if err := db.AutoMigrate(&positionRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([]positionRow, len(records))
	for i, r := range records {
		p := storage.FromRecord(r)
		rows[i] = positionRow{
			Position:  i + 1,
			Name:      p.Name,
			EyeX:      p.EyeX,
			EyeY:      p.EyeY,
			EyeZ:      p.EyeZ,
			UpX:       p.UpX,
			UpY:       p.UpY,
			UpZ:       p.UpZ,
			ForwardX:  p.ForwardX,
			ForwardY:  p.ForwardY,
			ForwardZ:  p.ForwardZ,
			CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
		}
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 500).Error
	})
}

// Quarantine implements storage.Backend.
func (b *Backend) Quarantine(suffix string) (string, error) {
	if _, err := os.Stat(b.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("checking %s: %w", b.path, err)
	}
	dst := storage.QuarantinePath(b.path, suffix)
	if err := os.Rename(b.path, dst); err != nil {
		return "", fmt.Errorf("moving %s aside: %w", b.path, err)
	}
	return dst, nil
}
