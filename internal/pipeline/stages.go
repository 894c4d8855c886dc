package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lsmon/nativedeps/internal/artifact"
	"github.com/lsmon/nativedeps/internal/command"
	"github.com/lsmon/nativedeps/internal/deps"
	"github.com/lsmon/nativedeps/pkgs/buildsys/cmake"
)

// Builder configures and compiles one build tree.
type Builder interface {
	Configure(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) error
	Compile(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) error
}

// Packager turns a compiled build tree into an archive.
type Packager interface {
	Package(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) (Archive, error)
}

// Installer moves build output into the install root. The archive is the
// zero value for dependencies installed in direct mode.
type Installer interface {
	Install(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree, a Archive) error
}

// CMakeBuilder builds with the profile's cmake.
type CMakeBuilder struct {
	Runner command.Runner
}

func (b *CMakeBuilder) Configure(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) error {
	return b.cmake(rc, d, t).Configure(ctx)
}

func (b *CMakeBuilder) Compile(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) error {
	return b.cmake(rc, d, t).Build(ctx)
}

func (b *CMakeBuilder) cmake(rc RunContext, d deps.Descriptor, t BuildTree) *cmake.CMake {
	c := cmake.New(b.Runner, rc.Profile.BuildTool)
	c.Source(t.RootDir)
	c.BuildDir(t.BuildDir)
	c.Generator(rc.Generator).BuildType(rc.BuildType).Target("all").Jobs(rc.Jobs)
	c.DefineBool("CMAKE_EXPORT_COMPILE_COMMANDS", true)

	if cc := rc.Profile.Compilers; d.CompilerOverrides && !cc.IsZero() {
		if cc.C != "" {
			c.DefineFilepath("CMAKE_C_COMPILER", cc.C)
		}
		if cc.CXX != "" {
			c.DefineFilepath("CMAKE_CXX_COMPILER", cc.CXX)
		}
	}
	for k, v := range d.Defines {
		c.DefineRaw(k, v)
	}
	// Dependencies installed earlier in the run are visible to find_package.
	c.Use(rc.RootPath)
	return c
}

// CPackPackager packs a build tree with the profile's cpack.
type CPackPackager struct {
	Runner command.Runner
}

func (p *CPackPackager) Package(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) (Archive, error) {
	if err := cmake.NewCPack(p.Runner, rc.Profile.PackageTool, t.BuildDir).Package(ctx); err != nil {
		return Archive{}, err
	}
	return ArchiveFor(t, d, rc.Profile), nil
}

// ArtifactInstaller extracts archives and merges their lib and include
// trees into the install root.
type ArtifactInstaller struct {
	Logger *log.Logger
}

func (in *ArtifactInstaller) Install(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree, a Archive) error {
	var libSrc, incSrc string
	if d.Install.Mode == deps.ModeDirect {
		libSrc = t.BuildDir
		incSrc = filepath.Join(t.RootDir, filepath.FromSlash(d.Install.Headers))
	} else {
		if _, err := os.Stat(a.Path); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		if in.Logger != nil {
			in.Logger.Debug("extracting", "archive", a.Path, "dir", t.BuildDir)
		}
		if err := artifact.Extract(a.Path, t.BuildDir); err != nil {
			return err
		}
		libSrc = filepath.Join(t.BuildDir, a.Stem, "lib")
		incSrc = filepath.Join(t.BuildDir, a.Stem, "include")
	}

	root := rc.InstallRoot()
	libs, err := resolveLibraries(libSrc, d.Libraries(rc.Profile))
	if err != nil {
		return err
	}
	for _, lib := range libs {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst, err := artifact.CopyInto(lib, root.LibDir)
		if err != nil {
			return fmt.Errorf("copy library: %w", err)
		}
		if in.Logger != nil {
			in.Logger.Debug("copied", "src", lib, "dst", dst)
		}
	}

	if err := os.MkdirAll(root.IncludeDir, 0o755); err != nil {
		return err
	}
	n, err := artifact.MergeTree(incSrc, root.IncludeDir)
	if err != nil {
		return fmt.Errorf("merge headers: %w", err)
	}
	if in.Logger != nil {
		in.Logger.Debug("merged headers", "src", incSrc, "files", n)
	}
	return nil
}

// resolveLibraries maps slash-separated library names under dir to paths.
// Names with glob metacharacters must match at least one file; plain names
// must exist.
func resolveLibraries(dir string, names []string) ([]string, error) {
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if strings.ContainsAny(name, "*?[") {
			matches, err := filepath.Glob(path)
			if err != nil {
				return nil, fmt.Errorf("library pattern %q: %w", name, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("library pattern %q matched nothing in %s", name, dir)
			}
			paths = append(paths, matches...)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("library %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
