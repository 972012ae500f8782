// internal/recovery/recovery.go
// Package recovery turns a panic into an orderly exit: registered hooks run
// first, so the terminal is restored before the report is printed.
package recovery

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
)

var (
	mu     sync.Mutex
	hooks  = map[int]func(){}
	nextID int
	logger *slog.Logger

	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// OnPanic registers fn to run, newest first, when a recovered panic is about
// to exit the process. The returned function removes the registration.
func OnPanic(fn func()) (remove func()) {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	hooks[id] = fn
	return func() {
		mu.Lock()
		delete(hooks, id)
		mu.Unlock()
	}
}

// SetLogger also reports panics to l, e.g. when logs go to a file.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// HandlePanic should be deferred at the top of main() or goroutines.
// It reports panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		fail(r, nil)
	}
}

// HandlePanicFunc is HandlePanic with an extra cleanup run before the exit.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		fail(r, cleanup)
	}
}

func fail(r any, cleanup func()) {
	stack := debug.Stack()

	mu.Lock()
	pending := make([]func(), 0, len(hooks)+1)
	for i := nextID - 1; i >= 0; i-- {
		if fn, ok := hooks[i]; ok {
			pending = append(pending, fn)
		}
	}
	l := logger
	mu.Unlock()

	if cleanup != nil {
		pending = append([]func(){cleanup}, pending...)
	}
	for _, fn := range pending {
		runHook(fn)
	}

	_, _ = fmt.Fprintf(stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
	if l != nil {
		l.Error("panic", "value", fmt.Sprint(r), "stack", string(stack))
	}
	exit(1)
}

// runHook keeps a failing hook from hiding the original panic.
func runHook(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
