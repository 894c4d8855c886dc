package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lsmon/nativedeps/internal/command"
	"github.com/lsmon/nativedeps/internal/deps"
	"github.com/lsmon/nativedeps/internal/vcs"
)

// Pipeline runs the four install stages for each dependency in order.
type Pipeline struct {
	VCS       vcs.VCS
	Builder   Builder
	Packager  Packager
	Installer Installer
	Logger    *log.Logger
}

// Options configures New.
type Options struct {
	Runner command.Runner
	VCS    vcs.VCS     // defaults to git through Runner
	Logger *log.Logger // nil discards
}

// New returns a Pipeline backed by git, cmake and cpack.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	v := opts.VCS
	if v == nil {
		v = vcs.NewGitVCS(opts.Runner)
	}
	return &Pipeline{
		VCS:       v,
		Builder:   &CMakeBuilder{Runner: opts.Runner},
		Packager:  &CPackPackager{Runner: opts.Runner},
		Installer: &ArtifactInstaller{Logger: logger},
		Logger:    logger,
	}
}

// Run installs each dependency, bound to rc.Version, into rc.RootPath.
// It stops at the first failure, which is returned as an *Error. Files
// already installed are left in place.
func (p *Pipeline) Run(ctx context.Context, rc RunContext, list []deps.Descriptor) error {
	for _, d := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.install(ctx, rc, d.WithVersion(rc.Version)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) install(ctx context.Context, rc RunContext, d deps.Descriptor) error {
	logger := p.logger().With("dep", d.Name)
	tree := rc.BuildTree(d)

	logger.Info("syncing", "stage", StageSync, "dir", tree.RootDir)
	if err := p.sync(ctx, rc, d, logger); err != nil {
		return stageError(StageSync, d.Name, err)
	}

	logger.Info("building", "stage", StageBuild, "dir", tree.BuildDir)
	if err := p.Builder.Configure(ctx, rc, d, tree); err != nil {
		return stageError(StageBuild, d.Name, err)
	}
	if err := p.Builder.Compile(ctx, rc, d, tree); err != nil {
		return stageError(StageBuild, d.Name, err)
	}

	var archive Archive
	if d.Install.Mode != deps.ModeDirect {
		logger.Info("packaging", "stage", StagePackage)
		var err error
		if archive, err = p.Packager.Package(ctx, rc, d, tree); err != nil {
			return stageError(StagePackage, d.Name, err)
		}
	}

	logger.Info("installing", "stage", StageInstall, "archive", archive.Path)
	if err := p.Installer.Install(ctx, rc, d, tree, archive); err != nil {
		return stageError(StageInstall, d.Name, err)
	}
	receipt := &Receipt{
		Version:     d.Version,
		Platform:    rc.Profile.Tag.String(),
		InstallTime: time.Now(),
	}
	if archive.Path != "" {
		receipt.Archive = filepath.Base(archive.Path)
	}
	if err := record(rc.RootPath, d.Name, receipt); err != nil {
		return stageError(StageInstall, d.Name, err)
	}
	logger.Info("installed", "version", d.Version)
	return nil
}

// sync clones a missing checkout, or fast-forwards an existing one that is
// behind its remote branch.
func (p *Pipeline) sync(ctx context.Context, rc RunContext, d deps.Descriptor, logger *log.Logger) error {
	src := rc.SourceDir(d)
	state, err := p.VCS.EnsurePresent(ctx, d.SourceURL, src)
	if err != nil {
		return err
	}
	logger.Debug("source", "state", state)
	if state == vcs.Cloned {
		return nil
	}

	upToDate, err := p.VCS.IsUpToDate(ctx, src, d.Branch)
	if err != nil {
		if rc.StrictSync {
			return err
		}
		logger.Warn("remote status unavailable, using existing checkout", "err", err)
		return nil
	}
	if upToDate {
		return nil
	}
	logger.Info("updating", "branch", d.Branch)
	return p.VCS.Update(ctx, src, d.Branch)
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger == nil {
		p.Logger = log.New(io.Discard)
	}
	return p.Logger
}
