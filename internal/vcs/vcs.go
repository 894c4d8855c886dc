package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lsmon/nativedeps/internal/command"
)

// State is the outcome of EnsurePresent.
type State int

const (
	// Cloned means the checkout was absent and has been cloned.
	Cloned State = iota + 1
	// AlreadyPresent means the checkout existed; nothing was fetched.
	AlreadyPresent
)

func (s State) String() string {
	switch s {
	case Cloned:
		return "cloned"
	case AlreadyPresent:
		return "already present"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// VCS defines the version control operations the install pipeline needs.
type VCS interface {
	// EnsurePresent clones remote into dir unless dir already exists.
	// An existing dir is reported as AlreadyPresent without network access.
	EnsurePresent(ctx context.Context, remote, dir string) (State, error)

	// IsUpToDate fetches the remote and reports whether branch has commits
	// the local checkout lacks. A failed query is an error, never an answer.
	IsUpToDate(ctx context.Context, dir, branch string) (bool, error)

	// Update fast-forwards the checkout in dir to the remote branch.
	Update(ctx context.Context, dir, branch string) error

	// Latest returns the commit the remote branch points at.
	Latest(ctx context.Context, remote, branch string) (string, error)
}

// gitVCS implements VCS using the git command line.
type gitVCS struct {
	runner command.Runner
	git    string
	remote string
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		if path != "" {
			g.git = path
		}
	}
}

// NewGitVCS creates a git-backed VCS running commands through r.
func NewGitVCS(r command.Runner, opts ...GitOption) VCS {
	g := &gitVCS{runner: r, git: "git", remote: "origin"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) EnsurePresent(ctx context.Context, remote, dir string) (State, error) {
	if _, err := os.Stat(dir); err == nil {
		return AlreadyPresent, nil
	} else if !os.IsNotExist(err) {
		return 0, err
	}
	parent, name := filepath.Split(filepath.Clean(dir))
	if parent == "" {
		parent = "."
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return 0, err
	}
	if err := g.run(ctx, parent, "clone", remote, name); err != nil {
		return 0, fmt.Errorf("clone %s: %w", remote, err)
	}
	return Cloned, nil
}

func (g *gitVCS) IsUpToDate(ctx context.Context, dir, branch string) (bool, error) {
	if err := g.run(ctx, dir, "remote", "update", g.remote); err != nil {
		return false, fmt.Errorf("remote update: %w", err)
	}
	out, err := g.output(ctx, dir, "rev-list", "--count", "HEAD.."+g.remote+"/"+branch)
	if err != nil {
		return false, fmt.Errorf("compare with %s/%s: %w", g.remote, branch, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return false, fmt.Errorf("compare with %s/%s: unexpected rev-list output %q", g.remote, branch, out)
	}
	return n == 0, nil
}

func (g *gitVCS) Update(ctx context.Context, dir, branch string) error {
	if err := g.run(ctx, dir, "pull", "--ff-only", g.remote, branch); err != nil {
		return fmt.Errorf("pull %s %s: %w", g.remote, branch, err)
	}
	return nil
}

func (g *gitVCS) Latest(ctx context.Context, remote, branch string) (string, error) {
	output, err := g.output(ctx, "", "ls-remote", remote, "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("get remote %s: %w", branch, err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return "", fmt.Errorf("no branch %s in remote %s", branch, remote)
	}

	// format: <hash>\trefs/heads/<branch>
	hash, _, _ := strings.Cut(output, "\t")
	return hash, nil
}

func (g *gitVCS) run(ctx context.Context, dir string, args ...string) error {
	return g.runner.Run(ctx, command.Cmd{Path: g.git, Args: args, Dir: dir})
}

func (g *gitVCS) output(ctx context.Context, dir string, args ...string) (string, error) {
	return g.runner.Output(ctx, command.Cmd{Path: g.git, Args: args, Dir: dir})
}
