package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGelfWriter struct {
	messages []*gelf.Message
	err      error
	closed   bool
}

func (w *fakeGelfWriter) WriteMessage(m *gelf.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, m)
	return nil
}

func (w *fakeGelfWriter) Close() error {
	w.closed = true
	return nil
}

func TestGelfHandler_Message(t *testing.T) {
	fw := &fakeGelfWriter{}
	logger := slog.New(newGelfHandler(fw, fw, slog.LevelInfo, Facility))

	logger.Warn("Moved unreadable view positions file aside", "path", "/a/b.xml", "count", 3, "ok", true)

	require.Len(t, fw.messages, 1)
	m := fw.messages[0]
	assert.Equal(t, "1.1", m.Version)
	assert.Equal(t, "Moved unreadable view positions file aside", m.Short)
	assert.Equal(t, gelfWarning, m.Level)
	assert.NotEmpty(t, m.Host)
	assert.InDelta(t, float64(time.Now().Unix()), m.TimeUnix, 60)
	assert.Equal(t, "viewvolt", m.Facility)
	assert.Equal(t, map[string]interface{}{
		"_path":  "/a/b.xml",
		"_count": int64(3),
		"_ok":    true,
	}, m.Extra)
}

func TestGelfHandler_EncodedMessage(t *testing.T) {
	fw := &fakeGelfWriter{}
	logger := slog.New(newGelfHandler(fw, fw, slog.LevelInfo, Facility)).With("store", "/a/b.xml")
	logger.Warn("Moved unreadable view positions file aside", "records", 2)
	require.Len(t, fw.messages, 1)

	var buf bytes.Buffer
	require.NoError(t, fw.messages[0].MarshalJSONBuf(&buf))

	var decoded gelf.Message
	require.NoError(t, decoded.UnmarshalJSON(buf.Bytes()))
	assert.Equal(t, "viewvolt", decoded.Facility)
	assert.Equal(t, "Moved unreadable view positions file aside", decoded.Short)
	assert.Equal(t, map[string]interface{}{
		"_store":   "/a/b.xml",
		"_records": float64(2),
	}, decoded.Extra)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for key := range raw {
		switch key {
		case "version", "host", "short_message", "timestamp", "level", "facility":
		default:
			assert.True(t, strings.HasPrefix(key, "_"), "additional field %q lacks the _ prefix", key)
		}
	}
}

func TestGelfField(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"path", "_path"},
		{"save.count", "_save.count"},
		{"moved-to", "_moved-to"},
		{"id", "_id_"},
		{"with space", "_with_space"},
		{"naïve", "_na_ve"},
		{"_line", "__line"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, gelfField(tt.key))
		})
	}
}

func TestGelfHandler_FiltersByLevel(t *testing.T) {
	fw := &fakeGelfWriter{}
	h := newGelfHandler(fw, fw, slog.LevelWarn, Facility)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	slog.New(h).Info("dropped")
	assert.Empty(t, fw.messages)
}

func TestGelfHandler_AttrsAndGroups(t *testing.T) {
	fw := &fakeGelfWriter{}
	logger := slog.New(newGelfHandler(fw, fw, slog.LevelDebug, Facility)).
		With("component", "store").
		WithGroup("save").
		With("path", "/x")

	logger.Debug("done", "count", 2, slog.Group("timing", "ms", 1.5))

	require.Len(t, fw.messages, 1)
	extra := fw.messages[0].Extra
	assert.Equal(t, "store", extra["_component"])
	assert.Equal(t, "/x", extra["_save.path"])
	assert.Equal(t, int64(2), extra["_save.count"])
	assert.Equal(t, 1.5, extra["_save.timing.ms"])
	assert.Equal(t, gelfDebug, fw.messages[0].Level)
}

func TestGelfHandler_WriteErrorIsReturned(t *testing.T) {
	fw := &fakeGelfWriter{err: errors.New("unreachable")}
	h := newGelfHandler(fw, fw, slog.LevelInfo, Facility)

	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	assert.Error(t, h.Handle(context.Background(), r))
}

func TestGelfLevel(t *testing.T) {
	assert.Equal(t, gelfError, gelfLevel(slog.LevelError+4))
	assert.Equal(t, gelfWarning, gelfLevel(slog.LevelWarn))
	assert.Equal(t, gelfInfo, gelfLevel(slog.LevelInfo))
	assert.Equal(t, gelfDebug, gelfLevel(slog.LevelDebug))
}

func TestNewGraylogHandler_UDP(t *testing.T) {
	// UDP dials do not need a listener.
	h, err := NewGraylogHandler("127.0.0.1:12201", "info")
	require.NoError(t, err)
	assert.NoError(t, h.Close())
}
