package cmake

import (
	"context"

	"github.com/lsmon/nativedeps/internal/command"
	"github.com/lsmon/nativedeps/pkgs/buildsys"
)

// cpackGenerator is the only archive format Extract understands.
const cpackGenerator = "ZIP"

// CPack drives cpack inside a configured build directory.
type CPack struct {
	runner   command.Runner
	bin      string
	buildDir string
}

var _ buildsys.Packager = (*CPack)(nil)

// NewCPack creates a CPack helper for buildDir. An empty bin means "cpack".
func NewCPack(r command.Runner, bin, buildDir string) *CPack {
	if bin == "" {
		bin = "cpack"
	}
	return &CPack{runner: r, bin: bin, buildDir: buildDir}
}

// Package runs cpack with the build directory as its working directory.
func (p *CPack) Package(ctx context.Context, args ...string) error {
	cmdArgs := append([]string{"-G", cpackGenerator}, args...)
	return p.runner.Run(ctx, command.Cmd{Path: p.bin, Args: cmdArgs, Dir: p.buildDir})
}
