package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(":VIEW:LOAD:", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: ":VIEW:LOAD:", Args: []string{"3"}})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got.Command != ":VIEW:LOAD:" || len(got.Args) != 1 || got.Args[0] != "3" {
		t.Errorf("handler received %+v", got)
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: ":UNKNOWN:"})

	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestDispatcher_HandlerErrorIsReturned(t *testing.T) {
	d, _ := newTestDispatcher(t)
	want := errors.New("no active view")

	d.Register(":VIEW:SAVE:", func(e Event) (any, error) {
		return nil, want
	})

	_, err := d.Dispatch(Event{Command: ":VIEW:SAVE:"})
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":LOGGED:", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	d.Dispatch(Event{Command: ":LOGGED:", Args: []string{"a", "b"}})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) != 2 {
		t.Fatalf("expected 2 log messages, got %d", len(logger.messages))
	}
	if !strings.Contains(logger.messages[0], "handling event") {
		t.Errorf("unexpected first message %q", logger.messages[0])
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":ERROR:", func(e Event) (any, error) {
		return nil, fmt.Errorf("test error")
	}, Logged())

	d.Dispatch(Event{Command: ":ERROR:"})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	hasError := false
	for _, msg := range logger.messages {
		if strings.HasPrefix(msg, "ERROR") {
			hasError = true
			break
		}
	}

	if !hasError {
		t.Error("expected error log message")
	}
}

func TestDispatcher_UnloggedHandlerIsQuiet(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":QUIET:", func(e Event) (any, error) { return nil, nil })
	d.Dispatch(Event{Command: ":QUIET:"})

	if len(logger.messages) != 0 {
		t.Errorf("expected no log messages, got %v", logger.messages)
	}
}

func TestDispatcher_NilLogger(t *testing.T) {
	d, err := New(nil)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	d.Register(":LOGGED:", func(e Event) (any, error) { return "ok", nil }, Logged())
	if _, err := d.Dispatch(Event{Command: ":LOGGED:"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(":EXISTS:", func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler(":EXISTS:") {
		t.Error("expected handler to exist")
	}

	if d.HasHandler(":NOT_EXISTS:") {
		t.Error("expected handler to not exist")
	}
}

func TestDispatcher_RegisterReplaces(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(":CMD:", func(e Event) (any, error) { return "first", nil })
	d.Register(":CMD:", func(e Event) (any, error) { return "second", nil })

	result, _ := d.Dispatch(Event{Command: ":CMD:"})
	if result != "second" {
		t.Errorf("expected 'second', got %v", result)
	}
}

func TestDispatcher_Commands(t *testing.T) {
	d, _ := newTestDispatcher(t)
	noop := func(e Event) (any, error) { return nil, nil }

	d.Register(":VIEW:SAVE:", noop)
	d.Register(":VIEW:ADD:", noop)
	d.Register(":VIEW:LIST:", noop)

	got := strings.Join(d.Commands(), " ")
	if got != ":VIEW:ADD: :VIEW:LIST: :VIEW:SAVE:" {
		t.Errorf("unexpected commands %q", got)
	}
}

func TestDispatcher_ConcurrentDispatch(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var mu sync.Mutex
	count := 0
	d.Register(":COUNT:", func(e Event) (any, error) {
		mu.Lock()
		count++
		mu.Unlock()
		return nil, nil
	}, Logged())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(Event{Command: ":COUNT:"})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("expected 50 calls, got %d", count)
	}
}
