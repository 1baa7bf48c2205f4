package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var (
	// ErrEmptyName is returned when a record name is empty or only whitespace
	ErrEmptyName = errors.New("record name is empty")

	// ErrInvalidName is returned when a name holds characters no storage format
	// can keep: invalid UTF-8, control characters, or the noncharacters U+FFFE
	// and U+FFFF
	ErrInvalidName = errors.New("record name has invalid characters")

	// ErrZeroTime is returned when a record is built without a creation time
	ErrZeroTime = errors.New("record creation time is zero")
)

// PoseRecord is a named, timestamped pose.
// Only Name may change after construction, and only through the store's Rename.
type PoseRecord struct {
	Name      string
	Pose      Pose
	CreatedAt time.Time
}

// NewRecord builds a record. The caller supplies the creation instant.
func NewRecord(name string, pose Pose, createdAt time.Time) (PoseRecord, error) {
	if err := ValidateName(name); err != nil {
		return PoseRecord{}, err
	}
	if createdAt.IsZero() {
		return PoseRecord{}, ErrZeroTime
	}
	return PoseRecord{Name: name, Pose: pose, CreatedAt: createdAt}, nil
}

// ValidateName rejects names that are empty after trimming whitespace and
// names that would not survive an XML round trip.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidName)
	}
	for _, r := range name {
		if unicode.IsControl(r) || r == 0xFFFE || r == 0xFFFF {
			return fmt.Errorf("%w: %U", ErrInvalidName, r)
		}
	}
	return nil
}

// folder is stateless and safe for concurrent use.
var folder = cases.Fold()

// FoldName returns the case-folded form used for name comparison and search.
func FoldName(name string) string {
	return folder.String(name)
}

// SameName reports whether two names collide under case-insensitive comparison.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
