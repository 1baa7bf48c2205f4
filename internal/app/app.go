// Package app wires configuration, logging, the pose store, and the command
// surface into one running extension.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/viewvolt/extension/internal/applier"
	"github.com/viewvolt/extension/internal/config"
	"github.com/viewvolt/extension/internal/dispatcher"
	"github.com/viewvolt/extension/internal/handlers"
	"github.com/viewvolt/extension/internal/logging"
	"github.com/viewvolt/extension/internal/posestore"
	"github.com/viewvolt/extension/pkg/hostbridge"
)

// Name prefixes log files.
const Name = "viewvolt"

// Version is reported by :VERSION:. Set at build time via ldflags.
var Version = "0.1.0"

// Options are the host-provided pieces the extension cannot build itself.
type Options struct {
	// ConfigDir holds viewvolt.cfg.json. A missing file means defaults.
	ConfigDir string

	Host handlers.Host
	UI   handlers.UI

	// Fs backs file-format stores and log files. Defaults to the OS filesystem.
	Fs afero.Fs

	// Now defaults to time.Now.
	Now func() time.Time
}

// App is a running extension.
type App struct {
	LogManager *logging.SlogManager
	Logger     *slog.Logger
	Store      *posestore.Store
	Service    *handlers.Service
	Dispatcher *dispatcher.Dispatcher
	Bridge     *hostbridge.Bridge

	LogFilePath string
	logFile     io.Closer
}

// New loads config, sets up logging, opens the store and registers every
// command. A store that fails to load is reported to the user and the
// extension still starts with an empty list.
func New(opts Options) (*App, error) {
	if opts.Host == nil || opts.UI == nil {
		return nil, errors.New("app: host and UI are required")
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sessionStart := opts.Now()

	a := &App{LogManager: logging.NewSlogManager()}
	a.LogManager.Setup(nil, "info")
	a.Logger = a.LogManager.Logger()

	if err := config.Load(opts.ConfigDir); err != nil {
		a.Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		a.Logger.Info("Loaded config", "dir", opts.ConfigDir)
	}

	storeCfg := config.GetStoreConfig()
	ext, err := ExtensionFor(storeCfg.Format)
	if err != nil {
		return nil, err
	}
	storePath, err := config.ResolveStorePath(ext)
	if err != nil {
		return nil, err
	}

	level := config.GetString("logLevel")
	var logOut io.Writer = os.Stdout
	var logFile afero.File
	a.LogFilePath, logFile, err = openLogFile(opts.Fs, config.ResolveLogsDir(storePath), sessionStart)
	if err != nil {
		a.Logger.Error("Failed to create/open log file!", "error", err, "path", a.LogFilePath)
	} else {
		logOut = logFile
		a.logFile = logFile
	}

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, err := logging.NewGraylogHandler(gl.Address, level)
		if err != nil {
			a.Logger.Error("Failed to set up Graylog", "error", err, "address", gl.Address)
		} else {
			extra = append(extra, h)
		}
	}

	if logFile != nil {
		a.LogManager.Setup(logFile, level, extra...)
	} else {
		a.LogManager.Setup(nil, level, extra...)
	}

	// Every line carries the current store state, republished on each change.
	storeAttrs := &logging.ContextAttrs{}
	storeAttrs.Set(slog.Int("records", 0), slog.String("store", storePath))
	a.LogManager.Wrap(func(inner slog.Handler) slog.Handler {
		return logging.NewContextHandler(inner, storeAttrs)
	})
	a.Logger = a.LogManager.Logger()
	a.Logger.Info("Logging to file", "path", a.LogFilePath)

	zl := logging.NewZerolog(logOut, level)
	backend, err := NewBackend(storeCfg.Format, storePath, opts.Fs, zl.With().Str("component", "storage").Logger())
	if err != nil {
		a.Close()
		return nil, err
	}

	store := posestore.New(backend,
		posestore.WithLogger(a.Logger.With("component", "posestore")),
		posestore.WithClock(opts.Now),
		posestore.WithOnChange(func(count int) {
			storeAttrs.Set(slog.Int("records", count), slog.String("store", storePath))
		}),
	)
	a.Store = store

	a.Service = handlers.NewService(handlers.Dependencies{
		Store:      store,
		Applier:    applier.New(a.Logger.With("component", "applier")),
		Host:       opts.Host,
		UI:         opts.UI,
		LogManager: a.LogManager,
		Now:        opts.Now,
		QuickSave:  config.GetQuickSaveConfig(),
		Display:    config.GetDisplayConfig(),
	})

	if n, err := a.Service.Reload(); err != nil {
		a.Logger.Error("Failed to load view positions", "error", err, "path", storePath)
	} else {
		a.Logger.Info("View positions ready", "path", storePath, "format", storeCfg.Format, "count", n)
	}

	a.Dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(zl.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	RegisterHandlers(a.Dispatcher, a.Service)

	a.Bridge = hostbridge.New(Version, a.Dispatcher)
	return a, nil
}

// Close flushes and releases log sinks.
func (a *App) Close() error {
	var errs []error
	if err := a.LogManager.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

func openLogFile(fsys afero.Fs, logsDir string, sessionStart time.Time) (string, afero.File, error) {
	path := logging.LogFilePath(logsDir, Name, sessionStart)
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, nil, err
	}
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return path, nil, err
	}
	return path, f, nil
}
