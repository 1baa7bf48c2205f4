package file

import (
	"fmt"
	"io"
	"strings"

	"github.com/viewvolt/extension/internal/storage"
)

// Codec encodes and decodes the flat record list for one file format.
type Codec interface {
	// Format is the config name of the codec, e.g. "xml".
	Format() string

	// Extension is the default file extension including the dot.
	Extension() string

	Encode(w io.Writer, positions []storage.ViewPosition) error

	// Decode returns an error for any content it cannot fully understand,
	// including a schema version newer than storage.SchemaVersion.
	Decode(r io.Reader) ([]storage.ViewPosition, error)
}

// CodecFor returns the codec registered for format.
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "xml", "":
		return XMLCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedFormat, format)
	}
}

func checkVersion(version int) error {
	if version > storage.SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, storage.SchemaVersion)
	}
	if version < 0 {
		return fmt.Errorf("invalid schema version %d", version)
	}
	return nil
}
