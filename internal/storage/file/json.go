package file

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/viewvolt/extension/internal/storage"
)

// JSONCodec reads and writes {"version":1,"positions":[...]}.
type JSONCodec struct{}

type jsonDocument struct {
	Version   int                    `json:"version"`
	Positions []storage.ViewPosition `json:"positions"`
}

// Format implements Codec.
func (JSONCodec) Format() string { return "json" }

// Extension implements Codec.
func (JSONCodec) Extension() string { return ".json" }

// Encode implements Codec.
func (JSONCodec) Encode(w io.Writer, positions []storage.ViewPosition) error {
	if positions == nil {
		positions = []storage.ViewPosition{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonDocument{Version: storage.SchemaVersion, Positions: positions}); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// Decode implements Codec.
func (JSONCodec) Decode(r io.Reader) ([]storage.ViewPosition, error) {
	var doc jsonDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding json: trailing data after document")
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	return doc.Positions, nil
}
