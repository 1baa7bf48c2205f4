package file

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/viewvolt/extension/internal/storage"
	"github.com/viewvolt/extension/pkg/core"
)

// legacyTimeLayouts are tried after RFC 3339 when reading CreatedAt.
// Older files may carry a timestamp without a zone offset.
var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// XMLCodec reads and writes the ArrayOfViewPosition layout. Legacy files written
// by the .NET add-in carry no version attribute and namespace declarations on the
// root element; both are accepted.
type XMLCodec struct{}

type xmlDocument struct {
	XMLName   xml.Name      `xml:"ArrayOfViewPosition"`
	Version   int           `xml:"version,attr,omitempty"`
	Positions []xmlPosition `xml:"ViewPosition"`
}

type xmlPosition struct {
	Name      string  `xml:"Name"`
	EyeX      float64 `xml:"EyeX"`
	EyeY      float64 `xml:"EyeY"`
	EyeZ      float64 `xml:"EyeZ"`
	UpX       float64 `xml:"UpX"`
	UpY       float64 `xml:"UpY"`
	UpZ       float64 `xml:"UpZ"`
	ForwardX  float64 `xml:"ForwardX"`
	ForwardY  float64 `xml:"ForwardY"`
	ForwardZ  float64 `xml:"ForwardZ"`
	CreatedAt string  `xml:"CreatedAt"`
}

// Format implements Codec.
func (XMLCodec) Format() string { return "xml" }

// Extension implements Codec.
func (XMLCodec) Extension() string { return ".xml" }

// Encode implements Codec.
func (XMLCodec) Encode(w io.Writer, positions []storage.ViewPosition) error {
	doc := xmlDocument{
		Version:   storage.SchemaVersion,
		Positions: make([]xmlPosition, len(positions)),
	}
	for i, p := range positions {
		if err := core.ValidateName(p.Name); err != nil {
			return fmt.Errorf("encoding xml: position %d: %w", i, err)
		}
		doc.Positions[i] = xmlPosition{
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

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding xml: %w", err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// Decode implements Codec.
func (XMLCodec) Decode(r io.Reader) ([]storage.ViewPosition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding xml: %w", err)
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}

	out := make([]storage.ViewPosition, len(doc.Positions))
	for i, p := range doc.Positions {
		createdAt, err := parseCreatedAt(p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("position %d (%q): %w", i, p.Name, err)
		}
		out[i] = storage.ViewPosition{
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
			CreatedAt: createdAt,
		}
	}
	return out, nil
}

func parseCreatedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid CreatedAt %q", s)
}
