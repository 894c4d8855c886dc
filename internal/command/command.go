// Package command runs external tools (git, cmake, cpack) from structured
// argument vectors. Nothing here goes through a shell and nothing changes the
// working directory of the current process: every Cmd carries its own Dir.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Cmd describes a single external process invocation.
type Cmd struct {
	Path string            // executable name or absolute path
	Args []string          // arguments, excluding Path
	Dir  string            // working directory; empty means inherit
	Env  map[string]string // overrides merged over os.Environ()
}

// String renders the command line for diagnostics only. It is never executed.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Runner executes commands. Implementations block until the process exits.
type Runner interface {
	// Run executes c, streaming its output.
	Run(ctx context.Context, c Cmd) error

	// Output executes c and returns its standard output.
	Output(ctx context.Context, c Cmd) (string, error)
}

// ExitError reports a command that exited non-zero or could not be started.
// Code is -1 when the process never ran.
type ExitError struct {
	Cmd    Cmd
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	var msg string
	var exitErr *exec.ExitError
	switch {
	case e.Code >= 0:
		msg = fmt.Sprintf("command '%s' failed with exit code %d", e.Cmd, e.Code)
	case errors.As(e.Err, &exitErr):
		msg = fmt.Sprintf("command '%s' was terminated: %v", e.Cmd, e.Err)
	default:
		msg = fmt.Sprintf("command '%s' could not be started: %v", e.Cmd, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Stdout and Stderr receive the streamed output of Run.
	// Nil discards it; stderr is still captured for error messages.
	Stdout io.Writer
	Stderr io.Writer

	Logger *log.Logger
}

var _ Runner = (*Exec)(nil)

// maxStderr bounds the stderr tail kept for ExitError.
const maxStderr = 4 << 10

func (e *Exec) Run(ctx context.Context, c Cmd) error {
	var stderr bytes.Buffer
	cmd := e.command(ctx, c)
	cmd.Stdout = e.Stdout
	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(e.Stderr, &stderr)
	} else {
		cmd.Stderr = &stderr
	}
	return exitError(c, cmd.Run(), stderr.Bytes())
}

func (e *Exec) Output(ctx context.Context, c Cmd) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.command(ctx, c)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := exitError(c, cmd.Run(), stderr.Bytes()); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func (e *Exec) command(ctx context.Context, c Cmd) *exec.Cmd {
	if e.Logger != nil {
		e.Logger.Debug("exec", "cmd", c.String(), "dir", c.Dir)
	}
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.Env)
	}
	return cmd
}

func exitError(c Cmd, err error, stderr []byte) error {
	if err == nil {
		return nil
	}
	tail := strings.TrimSpace(string(stderr))
	if len(tail) > maxStderr {
		tail = "..." + tail[len(tail)-maxStderr:]
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Cmd: c, Code: exitErr.ExitCode(), Stderr: tail, Err: err}
	}
	return &ExitError{Cmd: c, Code: -1, Stderr: tail, Err: err}
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
