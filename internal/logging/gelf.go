package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// Syslog severities used by GELF.
const (
	gelfError   int32 = 3
	gelfWarning int32 = 4
	gelfInfo    int32 = 6
	gelfDebug   int32 = 7
)

// messageWriter is the part of *gelf.Writer the handler needs.
type messageWriter interface {
	WriteMessage(m *gelf.Message) error
}

// Facility tags every message this module sends to Graylog.
const Facility = "viewvolt"

// GelfHandler is a slog.Handler that ships records to Graylog. Attributes
// become GELF additional fields: "_" prefixed, groups joined with dots.
type GelfHandler struct {
	w        messageWriter
	closer   io.Closer
	level    slog.Leveler
	host     string
	facility string

	attrs  []slog.Attr
	groups []string
}

// NewGraylogHandler dials address (host:port, UDP) and returns a handler
// logging at level and above.
func NewGraylogHandler(address, level string) (*GelfHandler, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("graylog writer %s: %w", address, err)
	}
	w.Facility = Facility
	return newGelfHandler(w, w, parseLevel(level), w.Facility), nil
}

func newGelfHandler(w messageWriter, closer io.Closer, level slog.Leveler, facility string) *GelfHandler {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &GelfHandler{w: w, closer: closer, level: level, host: host, facility: facility}
}

// Enabled implements slog.Handler.
func (h *GelfHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *GelfHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		addExtra(extra, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addExtra(extra, prefix, a)
		return true
	})

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	return h.w.WriteMessage(&gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(t.UnixNano()) / float64(time.Second),
		Level:    gelfLevel(r.Level),
		Facility: h.facility,
		Extra:    extra,
	})
}

// WithAttrs implements slog.Handler.
func (h *GelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	next := h.clone()
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

// WithGroup implements slog.Handler.
func (h *GelfHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

// Close closes the underlying connection.
func (h *GelfHandler) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

func (h *GelfHandler) clone() *GelfHandler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	next.groups = append([]string(nil), h.groups...)
	return &next
}

func addExtra(extra map[string]interface{}, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	switch {
	case prefix == "":
	case key == "":
		key = prefix
	default:
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addExtra(extra, key, ga)
		}
		return
	}
	key = gelfField(key)
	switch a.Value.Kind() {
	case slog.KindString:
		extra[key] = a.Value.String()
	case slog.KindInt64:
		extra[key] = a.Value.Int64()
	case slog.KindUint64:
		extra[key] = a.Value.Uint64()
	case slog.KindFloat64:
		extra[key] = a.Value.Float64()
	case slog.KindBool:
		extra[key] = a.Value.Bool()
	default:
		extra[key] = a.Value.String()
	}
}

// gelfField turns an attribute key into a GELF additional field name:
// characters outside [A-Za-z0-9_.-] become "_", the name gets the "_" prefix,
// and the reserved "_id" is renamed to "_id_".
func gelfField(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			return r
		}
		return '_'
	}, key)
	name = "_" + name
	if name == "_id" {
		return "_id_"
	}
	return name
}

func gelfLevel(l slog.Level) int32 {
	switch {
	case l >= slog.LevelError:
		return gelfError
	case l >= slog.LevelWarn:
		return gelfWarning
	case l >= slog.LevelInfo:
		return gelfInfo
	default:
		return gelfDebug
	}
}
