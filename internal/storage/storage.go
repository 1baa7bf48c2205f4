// internal/storage/storage.go
package storage

import (
	"errors"
	"time"

	"github.com/viewvolt/extension/pkg/core"
)

// SchemaVersion is the layout version written by every backend.
// Files without a version are treated as version 1.
const SchemaVersion = 1

var (
	// ErrNotExist is returned by Read when the backing file does not exist yet
	ErrNotExist = errors.New("backing file does not exist")

	// ErrDecode is returned by Read when the backing file exists but cannot be understood
	ErrDecode = errors.New("backing file is malformed")

	// ErrUnsupportedFormat is returned when no backend handles the configured format
	ErrUnsupportedFormat = errors.New("unsupported storage format")
)

// Backend is the interface all storage implementations must satisfy.
// Every backend is bound to exactly one path for its lifetime.
type Backend interface {
	// Path is the backing location, resolved at construction.
	Path() string

	// Read returns the persisted records in stored order.
	// Returns ErrNotExist when nothing has been written yet and ErrDecode for malformed content.
	Read() ([]core.PoseRecord, error)

	// Write replaces the persisted records. Implementations write to a temporary
	// file and rename it over the old one, so readers never see a partial write.
	Write(records []core.PoseRecord) error

	// Quarantine moves the current backing file aside to "<path>.corrupt-<suffix>"
	// and returns the new location. A missing file is not an error and returns "".
	Quarantine(suffix string) (string, error)
}

// ViewPosition is the flat persisted shape of one record.
// Field names are part of the on-disk format and must not change.
type ViewPosition struct {
	Name      string    `xml:"Name" json:"Name"`
	EyeX      float64   `xml:"EyeX" json:"EyeX"`
	EyeY      float64   `xml:"EyeY" json:"EyeY"`
	EyeZ      float64   `xml:"EyeZ" json:"EyeZ"`
	UpX       float64   `xml:"UpX" json:"UpX"`
	UpY       float64   `xml:"UpY" json:"UpY"`
	UpZ       float64   `xml:"UpZ" json:"UpZ"`
	ForwardX  float64   `xml:"ForwardX" json:"ForwardX"`
	ForwardY  float64   `xml:"ForwardY" json:"ForwardY"`
	ForwardZ  float64   `xml:"ForwardZ" json:"ForwardZ"`
	CreatedAt time.Time `xml:"CreatedAt" json:"CreatedAt"`
}

// FromRecord flattens a record.
func FromRecord(r core.PoseRecord) ViewPosition {
	return ViewPosition{
		Name:      r.Name,
		EyeX:      r.Pose.Eye.X,
		EyeY:      r.Pose.Eye.Y,
		EyeZ:      r.Pose.Eye.Z,
		UpX:       r.Pose.Up.X,
		UpY:       r.Pose.Up.Y,
		UpZ:       r.Pose.Up.Z,
		ForwardX:  r.Pose.Forward.X,
		ForwardY:  r.Pose.Forward.Y,
		ForwardZ:  r.Pose.Forward.Z,
		CreatedAt: r.CreatedAt,
	}
}

// Record rebuilds the record. Names are not validated here; the store does that on load.
func (p ViewPosition) Record() core.PoseRecord {
	return core.PoseRecord{
		Name: p.Name,
		Pose: core.Pose{
			Eye:     core.Vec3{X: p.EyeX, Y: p.EyeY, Z: p.EyeZ},
			Up:      core.Vec3{X: p.UpX, Y: p.UpY, Z: p.UpZ},
			Forward: core.Vec3{X: p.ForwardX, Y: p.ForwardY, Z: p.ForwardZ},
		},
		CreatedAt: p.CreatedAt,
	}
}

// FromRecords flattens records in order.
func FromRecords(records []core.PoseRecord) []ViewPosition {
	out := make([]ViewPosition, len(records))
	for i, r := range records {
		out[i] = FromRecord(r)
	}
	return out
}

// ToRecords rebuilds records in order.
func ToRecords(positions []ViewPosition) []core.PoseRecord {
	out := make([]core.PoseRecord, len(positions))
	for i, p := range positions {
		out[i] = p.Record()
	}
	return out
}

// QuarantinePath is where Quarantine moves a backing file.
func QuarantinePath(path, suffix string) string {
	return path + ".corrupt-" + suffix
}
