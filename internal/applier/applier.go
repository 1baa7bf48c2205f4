// Package applier pushes saved poses onto a host view and reads the current
// pose back.
package applier

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/viewvolt/extension/pkg/core"
)

// TransactionName labels the host undo entry opened by Apply.
const TransactionName = "Set View Position"

var (
	// ErrNoActiveView is returned when there is no 3D view to act on
	ErrNoActiveView = errors.New("no active view")

	// ErrHostRejected is returned when the host refuses a read or write, or
	// the pose is degenerate
	ErrHostRejected = errors.New("host rejected view orientation")
)

// Transaction is a host undo scope.
type Transaction interface {
	Commit() error
	Rollback() error
}

// View is the host's live 3D view.
type View interface {
	Orientation() (core.Pose, error)
	SetOrientation(core.Pose) error
	SaveOrientation() error
	BeginTransaction(name string) (Transaction, error)
}

// Refresher is implemented by views that need an explicit redraw after a
// committed change.
type Refresher interface {
	Refresh() error
}

// Applier moves a host view to a saved pose.
type Applier struct {
	log *slog.Logger
}

// New creates an Applier. A nil logger falls back to slog.Default().
func New(log *slog.Logger) *Applier {
	if log == nil {
		log = slog.Default()
	}
	return &Applier{log: log}
}

// Apply sets view to rec's pose inside one host transaction. On any failure
// the transaction is rolled back and the view keeps its previous orientation.
func (a *Applier) Apply(rec core.PoseRecord, view View) (err error) {
	if view == nil {
		return ErrNoActiveView
	}
	if err := rec.Pose.Validate(); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrHostRejected, rec.Name, err)
	}

	tx, err := view.BeginTransaction(TransactionName)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrHostRejected, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			a.log.Error("Failed to roll back view transaction", "name", rec.Name, "error", rbErr)
		}
	}()

	if err := view.SetOrientation(rec.Pose); err != nil {
		return fmt.Errorf("%w: set orientation: %w", ErrHostRejected, err)
	}
	if err := view.SaveOrientation(); err != nil {
		return fmt.Errorf("%w: save orientation: %w", ErrHostRejected, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrHostRejected, err)
	}

	if r, ok := view.(Refresher); ok {
		if err := r.Refresh(); err != nil {
			a.log.Warn("Failed to refresh view", "name", rec.Name, "error", err)
		}
	}

	a.log.Debug("Applied view position", "name", rec.Name)
	return nil
}

// Capture reads the current pose of view.
func (a *Applier) Capture(view View) (core.Pose, error) {
	if view == nil {
		return core.Pose{}, ErrNoActiveView
	}
	pose, err := view.Orientation()
	if errors.Is(err, ErrNoActiveView) {
		return core.Pose{}, err
	}
	if err != nil {
		return core.Pose{}, fmt.Errorf("%w: read orientation: %w", ErrHostRejected, err)
	}
	return pose, nil
}
