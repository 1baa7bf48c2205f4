// Package handlers implements the view manager workflows: each method is one
// user action, run synchronously against the store, the applier, and the
// host and UI collaborators.
package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viewvolt/extension/internal/applier"
	"github.com/viewvolt/extension/internal/config"
	"github.com/viewvolt/extension/internal/logging"
	"github.com/viewvolt/extension/internal/posestore"
	"github.com/viewvolt/extension/internal/util"
	"github.com/viewvolt/extension/pkg/core"
)

// User-facing messages.
const (
	msgNoActiveView     = "Please activate a 3D view first."
	msgSelectToLoad     = "Please select a view to load"
	msgSelectToDelete   = "Please select a view to delete"
	msgSelectToRename   = "Please select a view to rename"
	msgDuplicateName    = "A view with this name already exists"
	msgDeleted          = "View position deleted"
	msgSavedAs          = "View saved as '%s'"
	msgApplyFailed      = "Failed to set view orientation: %v"
	msgLoadFailed       = "Failed to load saved positions: %v"
	msgSaveFailed       = "Error saving view: %v"
	promptSaveName      = "Enter name for this view position:"
	promptRenameName    = "Enter new name for the view:"
	defaultViewNameBase = "View"
)

const defaultTimeFormat = "2006-01-02 15:04"

// ErrBadArguments is returned when a command's arguments cannot be parsed.
var ErrBadArguments = errors.New("bad arguments")

// Host gives access to the host's active 3D view.
type Host interface {
	// ActiveView returns the active 3D view, or applier.ErrNoActiveView.
	ActiveView() (applier.View, error)
}

// UI is the user-facing side of the host: prompts, confirmations, and messages.
type UI interface {
	PromptForName(prompt, defaultValue string) (string, bool)
	ConfirmDelete(name string) bool
	NotifyUser(message string, isError bool)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Store      *posestore.Store
	Applier    *applier.Applier
	Host       Host
	UI         UI
	LogManager *logging.SlogManager
	Now        func() time.Time
	QuickSave  config.QuickSaveConfig
	Display    config.DisplayConfig
}

// Row is one line of the view list.
type Row struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// Service provides handler methods for the view manager
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Applier == nil {
		deps.Applier = applier.New(nil)
	}
	if deps.QuickSave.TimeFormat == "" {
		deps.QuickSave.TimeFormat = defaultTimeFormat
	}
	if deps.Display.TimeFormat == "" {
		deps.Display.TimeFormat = defaultTimeFormat
	}
	s := &Service{deps: deps}
	// Default writeLog function uses the logging manager
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

func (s *Service) notify(message string, isError bool) {
	if s.deps.UI != nil {
		s.deps.UI.NotifyUser(message, isError)
	}
}

// activeView returns the host's 3D view or notifies the user.
func (s *Service) activeView(functionName string) (applier.View, error) {
	view, err := s.deps.Host.ActiveView()
	if err == nil && view == nil {
		err = applier.ErrNoActiveView
	}
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf("No active view: %v", err), "WARN")
		s.notify(msgNoActiveView, true)
		if !errors.Is(err, applier.ErrNoActiveView) {
			err = fmt.Errorf("%w: %w", applier.ErrNoActiveView, err)
		}
		return nil, err
	}
	return view, nil
}

// add inserts rec and persists, notifying on failure.
func (s *Service) add(functionName string, rec core.PoseRecord) error {
	if err := s.deps.Store.Add(rec); err != nil {
		if errors.Is(err, posestore.ErrDuplicateName) {
			s.notify(msgDuplicateName, true)
		}
		s.writeLog(functionName, fmt.Sprintf("Error adding view %q: %v", rec.Name, err), "ERROR")
		return err
	}
	return s.save(functionName)
}

func (s *Service) save(functionName string) error {
	if err := s.deps.Store.Save(); err != nil {
		s.notify(fmt.Sprintf(msgSaveFailed, err), true)
		s.writeLog(functionName, fmt.Sprintf("Error saving view positions: %v", err), "ERROR")
		return err
	}
	return nil
}

// SaveCurrentView captures the active view and stores it under a name the
// user picks. Cancelling the prompt returns an empty name and no error.
func (s *Service) SaveCurrentView() (string, error) {
	functionName := ":VIEW:SAVE:"

	view, err := s.activeView(functionName)
	if err != nil {
		return "", err
	}
	pose, err := s.deps.Applier.Capture(view)
	if err != nil {
		s.notify(msgNoActiveView, true)
		s.writeLog(functionName, fmt.Sprintf("Error capturing view: %v", err), "ERROR")
		return "", err
	}

	defaultName := fmt.Sprintf("%s %d", defaultViewNameBase, s.deps.Store.Len()+1)
	name, ok := s.deps.UI.PromptForName(promptSaveName, defaultName)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil
	}

	rec, err := core.NewRecord(name, pose, s.deps.Now())
	if err != nil {
		return "", err
	}
	if err := s.add(functionName, rec); err != nil {
		return "", err
	}

	s.writeLog(functionName, fmt.Sprintf("Saved view %q", name), "INFO")
	return name, nil
}

// QuickSave captures the active view under a timestamped name without prompting.
func (s *Service) QuickSave() (string, error) {
	functionName := ":VIEW:QUICKSAVE:"

	view, err := s.activeView(functionName)
	if err != nil {
		return "", err
	}
	pose, err := s.deps.Applier.Capture(view)
	if err != nil {
		s.notify(msgNoActiveView, true)
		s.writeLog(functionName, fmt.Sprintf("Error capturing view: %v", err), "ERROR")
		return "", err
	}

	now := s.deps.Now()
	base := strings.TrimSpace(s.deps.QuickSave.Prefix + " " + now.Format(s.deps.QuickSave.TimeFormat))
	name := s.deps.Store.UniqueName(base)

	rec, err := core.NewRecord(name, pose, now)
	if err != nil {
		return "", err
	}
	if err := s.add(functionName, rec); err != nil {
		return "", err
	}

	s.notify(fmt.Sprintf(msgSavedAs, name), false)
	s.writeLog(functionName, fmt.Sprintf("Quick saved view %q", name), "INFO")
	return name, nil
}

// AddView stores an explicit pose without touching the host.
// Args: name, eye, up, forward, each vector as "x,y,z".
func (s *Service) AddView(data []string) (string, error) {
	functionName := ":VIEW:ADD:"

	if len(data) != 4 {
		s.writeLog(functionName, fmt.Sprintf("Expected 4 arguments, got %d", len(data)), "ERROR")
		return "", fmt.Errorf("%w: %s expects 4 arguments, got %d", ErrBadArguments, functionName, len(data))
	}
	data = util.CleanArgs(data)

	var vecs [3]core.Vec3
	for i, raw := range data[1:] {
		v, err := core.Vec3FromString(raw)
		if err != nil {
			s.writeLog(functionName, fmt.Sprintf("Error parsing vector %d: %v", i+1, err), "ERROR")
			return "", err
		}
		vecs[i] = v
	}
	pose := core.Pose{Eye: vecs[0], Up: vecs[1], Forward: vecs[2]}
	if err := pose.Validate(); err != nil {
		s.writeLog(functionName, fmt.Sprintf("Rejected pose: %v", err), "ERROR")
		return "", err
	}

	name := strings.TrimSpace(data[0])
	rec, err := core.NewRecord(name, pose, s.deps.Now())
	if err != nil {
		return "", err
	}
	if err := s.add(functionName, rec); err != nil {
		return "", err
	}
	return name, nil
}

// selected resolves an index argument, notifying with msg when it does not
// name a record.
func (s *Service) selected(functionName string, data []string, msg string) (int, core.PoseRecord, error) {
	if len(data) < 1 {
		s.notify(msg, true)
		return 0, core.PoseRecord{}, fmt.Errorf("%w: %s expects an index", ErrBadArguments, functionName)
	}
	index, err := util.ParseIndex(data[0])
	if err != nil {
		s.notify(msg, true)
		return 0, core.PoseRecord{}, fmt.Errorf("%w: %w", ErrBadArguments, err)
	}
	rec, err := s.deps.Store.Get(index)
	if err != nil {
		s.notify(msg, true)
		return 0, core.PoseRecord{}, err
	}
	return index, rec, nil
}

// LoadView applies the record at the given unfiltered index to the active view.
func (s *Service) LoadView(data []string) error {
	functionName := ":VIEW:LOAD:"

	_, rec, err := s.selected(functionName, data, msgSelectToLoad)
	if err != nil {
		return err
	}
	view, err := s.activeView(functionName)
	if err != nil {
		return err
	}
	if err := s.deps.Applier.Apply(rec, view); err != nil {
		if errors.Is(err, applier.ErrNoActiveView) {
			s.notify(msgNoActiveView, true)
		} else {
			s.notify(fmt.Sprintf(msgApplyFailed, err), true)
		}
		s.writeLog(functionName, fmt.Sprintf("Error applying view %q: %v", rec.Name, err), "ERROR")
		return err
	}

	s.writeLog(functionName, fmt.Sprintf("Loaded view %q", rec.Name), "DEBUG")
	return nil
}

// DeleteView removes the record at the given index once the user confirms.
// It reports whether the record was removed.
func (s *Service) DeleteView(data []string) (bool, error) {
	functionName := ":VIEW:DELETE:"

	index, rec, err := s.selected(functionName, data, msgSelectToDelete)
	if err != nil {
		return false, err
	}
	if !s.deps.UI.ConfirmDelete(rec.Name) {
		return false, nil
	}
	if err := s.deps.Store.Remove(index); err != nil {
		s.writeLog(functionName, fmt.Sprintf("Error removing view %q: %v", rec.Name, err), "ERROR")
		return false, err
	}
	if err := s.save(functionName); err != nil {
		return false, err
	}

	s.notify(msgDeleted, false)
	s.writeLog(functionName, fmt.Sprintf("Deleted view %q", rec.Name), "INFO")
	return true, nil
}

// RenameView renames the record at data[0]. The new name comes from data[1]
// when present, otherwise from a prompt pre-filled with the current name.
// Cancel, blank, or an unchanged name leaves the store alone.
func (s *Service) RenameView(data []string) (string, error) {
	functionName := ":VIEW:RENAME:"

	index, rec, err := s.selected(functionName, data, msgSelectToRename)
	if err != nil {
		return "", err
	}

	newName := util.ArgOr(data, 1, "")
	if newName == "" {
		var ok bool
		newName, ok = s.deps.UI.PromptForName(promptRenameName, rec.Name)
		if !ok {
			return rec.Name, nil
		}
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == rec.Name {
		return rec.Name, nil
	}

	if err := s.deps.Store.Rename(index, newName); err != nil {
		if errors.Is(err, posestore.ErrDuplicateName) {
			s.notify(msgDuplicateName, true)
		}
		s.writeLog(functionName, fmt.Sprintf("Error renaming view %q: %v", rec.Name, err), "ERROR")
		return "", err
	}
	if err := s.save(functionName); err != nil {
		return "", err
	}

	s.writeLog(functionName, fmt.Sprintf("Renamed view %q to %q", rec.Name, newName), "INFO")
	return newName, nil
}

// ListViews returns the rows whose name contains the optional query.
func (s *Service) ListViews(data []string) []Row {
	query := util.ArgOr(data, 0, "")
	matches := s.deps.Store.Search(query)

	rows := make([]Row, len(matches))
	for i, m := range matches {
		rows[i] = Row{
			Index:     m.Index,
			Name:      m.Record.Name,
			CreatedAt: m.Record.CreatedAt.In(time.Local).Format(s.deps.Display.TimeFormat),
		}
	}
	return rows
}

// Reload re-reads the store from disk.
func (s *Service) Reload() (int, error) {
	functionName := ":VIEW:RELOAD:"

	if err := s.deps.Store.Load(); err != nil {
		s.notify(fmt.Sprintf(msgLoadFailed, err), true)
		s.writeLog(functionName, fmt.Sprintf("Error loading view positions: %v", err), "ERROR")
		return 0, err
	}
	return s.deps.Store.Len(), nil
}
