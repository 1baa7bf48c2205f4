package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// osStdout is the console sink; tests swap it out.
var osStdout io.Writer = os.Stdout

// SlogManager owns the process-wide slog.Logger and the sinks that need closing.
type SlogManager struct {
	logger  *slog.Logger
	closers []io.Closer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes logging. Records go to file when it is non-nil and to
// stdout otherwise, plus every extra handler. Extra handlers that implement
// io.Closer are closed by Close.
func (m *SlogManager) Setup(file io.Writer, level string, extra ...slog.Handler) {
	lvl := parseLevel(level)

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	m.closers = m.closers[:0]
	for _, h := range extra {
		if h == nil {
			continue
		}
		handlers = append(handlers, h)
		if c, ok := h.(io.Closer); ok {
			m.closers = append(m.closers, c)
		}
	}

	m.logger = slog.New(NewMultiHandler(handlers...))
	m.logger.Info("Logging initialized", "level", level)
}

// Wrap replaces the root handler with wrap(current). Used to layer a
// ContextHandler on top once the store exists.
func (m *SlogManager) Wrap(wrap func(slog.Handler) slog.Handler) {
	m.logger = slog.New(wrap(m.Logger().Handler()))
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Close releases sinks that hold connections.
func (m *SlogManager) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}

	lvl := parseLevel(level)

	switch lvl {
	case slog.LevelDebug:
		m.logger.Debug(data, "function", functionName)
	case slog.LevelInfo:
		m.logger.Info(data, "function", functionName)
	case slog.LevelWarn:
		m.logger.Warn(data, "function", functionName)
	case slog.LevelError:
		m.logger.Error(data, "function", functionName)
	default:
		m.logger.Info(data, "function", functionName)
	}
}
