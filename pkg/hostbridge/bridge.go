// Package hostbridge is the string-command entry point a host binding calls.
// Every call returns a JSON array: ["ok",cmd], ["ok",cmd,result] or
// ["error",cmd,message].
package hostbridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viewvolt/extension/internal/dispatcher"
)

// Built-in commands answered without the dispatcher.
const (
	CommandVersion   = ":VERSION:"
	CommandTimestamp = ":TIMESTAMP:"
)

// argSeparator splits the single-string call form "cmd|arg1|arg2".
const argSeparator = "|"

// Bridge forwards host calls to a dispatcher and formats the replies.
type Bridge struct {
	mu         sync.RWMutex
	version    string
	dispatcher *dispatcher.Dispatcher
	now        func() time.Time
}

// New creates a Bridge. d may be nil until SetDispatcher is called.
func New(version string, d *dispatcher.Dispatcher) *Bridge {
	if version == "" {
		version = "No version set"
	}
	return &Bridge{version: version, dispatcher: d, now: time.Now}
}

// SetVersion sets the string returned by :VERSION:.
func (b *Bridge) SetVersion(version string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.version = version
}

// SetDispatcher sets the event dispatcher for handling commands
func (b *Bridge) SetDispatcher(d *dispatcher.Dispatcher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dispatcher = d
}

// Dispatcher returns the configured dispatcher, or nil if not set
func (b *Bridge) Dispatcher() *dispatcher.Dispatcher {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dispatcher
}

// Call handles command with its arguments.
func (b *Bridge) Call(command string, args []string) string {
	b.mu.RLock()
	version, d, now := b.version, b.dispatcher, b.now
	b.mu.RUnlock()

	switch command {
	case CommandVersion:
		return formatDispatchResponse(command, version, nil)
	case CommandTimestamp:
		return formatDispatchResponse(command, strconv.FormatInt(now().UTC().UnixNano(), 10), nil)
	}

	if d == nil || !d.HasHandler(command) {
		return formatDispatchResponse(command, nil, fmt.Errorf("no handler registered"))
	}

	result, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: now(),
	})
	return formatDispatchResponse(command, result, err)
}

// CallLine handles the single-string form "cmd|arg1|arg2".
func (b *Bridge) CallLine(input string) string {
	parts := strings.Split(input, argSeparator)
	return b.Call(parts[0], parts[1:])
}

// formatDispatchResponse formats the dispatcher result for the host
func formatDispatchResponse(command string, result any, err error) string {
	reply := []any{"ok", command}
	switch {
	case err != nil:
		reply = []any{"error", command, err.Error()}
	case result != nil:
		reply = append(reply, result)
	}

	out, mErr := encode(reply)
	if mErr != nil {
		out, _ = encode([]any{"error", command, "unencodable result: " + mErr.Error()})
	}
	return out
}

// encode marshals v without HTML escaping; view names may contain & < >.
func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
