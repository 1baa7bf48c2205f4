package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/viewvolt/extension/internal/applier"
	"github.com/viewvolt/extension/pkg/core"
	"github.com/viewvolt/extension/pkg/hostbridge"
)

// cameraCommand sets or prints the simulated camera: ":CAMERA:|eye|up|forward".
const cameraCommand = ":CAMERA:"

var defaultCamera = core.Pose{
	Eye:     core.Vec3{X: 10, Y: 10, Z: 10},
	Up:      core.Vec3{Z: 1},
	Forward: core.Vec3{X: -1},
}

// consoleView is a stand-in 3D view whose camera lives in memory.
type consoleView struct {
	mu      sync.Mutex
	pose    core.Pose
	pending *core.Pose
}

type consoleTx struct {
	v     *consoleView
	start core.Pose
}

func (t *consoleTx) Commit() error {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	t.v.pending = nil
	return nil
}

func (t *consoleTx) Rollback() error {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	t.v.pose = t.start
	t.v.pending = nil
	return nil
}

func (v *consoleView) Orientation() (core.Pose, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pose, nil
}

func (v *consoleView) SetOrientation(p core.Pose) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = &p
	return nil
}

func (v *consoleView) SaveOrientation() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending == nil {
		return fmt.Errorf("no orientation to save")
	}
	v.pose = *v.pending
	return nil
}

func (v *consoleView) BeginTransaction(string) (applier.Transaction, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return &consoleTx{v: v, start: v.pose}, nil
}

// consoleHost always has its one view active.
type consoleHost struct {
	view *consoleView
}

func (h consoleHost) ActiveView() (applier.View, error) {
	return h.view, nil
}

// consoleUI asks questions on out and reads answers from in.
type consoleUI struct {
	in  *bufio.Reader
	out io.Writer
}

func (u *consoleUI) readLine() (string, bool) {
	line, err := u.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

func (u *consoleUI) PromptForName(prompt, defaultValue string) (string, bool) {
	fmt.Fprintf(u.out, "%s [%s] ", prompt, defaultValue)
	line, ok := u.readLine()
	if !ok {
		return "", false
	}
	if strings.TrimSpace(line) == "" {
		return defaultValue, true
	}
	return line, true
}

func (u *consoleUI) ConfirmDelete(name string) bool {
	fmt.Fprintf(u.out, "Delete view position %q? [y/N] ", name)
	line, ok := u.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (u *consoleUI) NotifyUser(message string, isError bool) {
	if isError {
		fmt.Fprintln(u.out, "error:", message)
		return
	}
	fmt.Fprintln(u.out, message)
}

// runShell answers one bridge call per input line until in is exhausted.
func runShell(b *hostbridge.Bridge, view *consoleView, ui *consoleUI) error {
	for {
		line, ok := ui.readLine()
		if !ok {
			return nil
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, cameraCommand):
			fmt.Fprintln(ui.out, camera(view, line))
		default:
			fmt.Fprintln(ui.out, b.CallLine(line))
		}
	}
}

func camera(view *consoleView, line string) string {
	parts := strings.Split(line, "|")
	if len(parts) == 1 {
		p, _ := view.Orientation()
		return fmt.Sprintf("eye=%s up=%s forward=%s", p.Eye, p.Up, p.Forward)
	}
	if len(parts) != 4 {
		return "usage: " + cameraCommand + "|eye|up|forward"
	}
	var vecs [3]core.Vec3
	for i, raw := range parts[1:] {
		v, err := core.Vec3FromString(raw)
		if err != nil {
			return fmt.Sprintf("vector %d: %v", i+1, err)
		}
		vecs[i] = v
	}
	p := core.Pose{Eye: vecs[0], Up: vecs[1], Forward: vecs[2]}
	if err := p.Validate(); err != nil {
		return err.Error()
	}
	view.mu.Lock()
	view.pose = p
	view.mu.Unlock()
	return "ok"
}
