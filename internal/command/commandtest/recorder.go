// Package commandtest provides a command.Runner that records invocations
// instead of executing them.
package commandtest

import (
	"context"
	"strings"
	"sync"

	"github.com/lsmon/nativedeps/internal/command"
)

// Recorder implements command.Runner. Every call is appended to Calls and
// answered by Handle; a nil Handle succeeds with empty output.
type Recorder struct {
	Handle func(c command.Cmd) (string, error)

	mu    sync.Mutex
	calls []command.Cmd
}

var _ command.Runner = (*Recorder)(nil)

func (r *Recorder) Run(ctx context.Context, c command.Cmd) error {
	_, err := r.Output(ctx, c)
	return err
}

func (r *Recorder) Output(ctx context.Context, c command.Cmd) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.Handle != nil {
		return r.Handle(c)
	}
	return "", nil
}

// Calls returns a copy of the recorded commands in invocation order.
func (r *Recorder) Calls() []command.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Cmd(nil), r.calls...)
}

// Lines renders each recorded command as "path arg arg ...".
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = strings.Join(append([]string{c.Path}, c.Args...), " ")
	}
	return lines
}

// Fail returns the error a real runner reports for c exiting with code.
func Fail(c command.Cmd, code int) error {
	return &command.ExitError{Cmd: c, Code: code}
}
