// Package pipeline synchronizes, builds, packages and installs native
// dependencies into a shared install root, one dependency at a time.
package pipeline

import (
	"path/filepath"

	"github.com/lsmon/nativedeps/internal/deps"
	"github.com/lsmon/nativedeps/internal/platform"
)

// RunContext carries everything a run depends on. It is built once from
// caller input and passed to every stage.
type RunContext struct {
	RootPath string
	Version  string
	Profile  platform.Profile

	BuildType  string // cmake build type, e.g. Debug
	Generator  string // cmake -G value; empty keeps cmake's default
	Jobs       int    // build parallelism; <= 0 leaves it to the build tool
	StrictSync bool   // abort when the remote status query fails
}

// SourceDir is the checkout directory of d.
func (rc RunContext) SourceDir(d deps.Descriptor) string {
	return filepath.Join(rc.RootPath, filepath.FromSlash(d.Dir))
}

// BuildTree returns the source and build directories of d.
func (rc RunContext) BuildTree(d deps.Descriptor) BuildTree {
	src := rc.SourceDir(d)
	return BuildTree{RootDir: src, BuildDir: filepath.Join(src, "build")}
}

// InstallRoot returns the shared lib and include directories.
func (rc RunContext) InstallRoot() InstallRoot {
	return InstallRoot{
		LibDir:     filepath.Join(rc.RootPath, "lib"),
		IncludeDir: filepath.Join(rc.RootPath, "include"),
	}
}

// BuildTree is where one dependency is configured and compiled. BuildDir is
// reused across runs and never cleaned.
type BuildTree struct {
	RootDir  string
	BuildDir string
}

// InstallRoot is the destination shared by every dependency.
type InstallRoot struct {
	LibDir     string
	IncludeDir string
}

// Archive is the packaged output of one build tree.
type Archive struct {
	Path string // <build dir>/<stem>.zip
	Stem string // directory the archive extracts to
}

// ArchiveFor returns the archive cpack writes for d into t.BuildDir.
func ArchiveFor(t BuildTree, d deps.Descriptor, p platform.Profile) Archive {
	return Archive{
		Path: filepath.Join(t.BuildDir, deps.ArchiveName(d, p)),
		Stem: deps.ArchiveStem(d, p),
	}
}
