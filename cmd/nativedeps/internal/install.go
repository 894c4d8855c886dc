package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lsmon/nativedeps/internal/config"
	"github.com/lsmon/nativedeps/internal/deps"
	"github.com/lsmon/nativedeps/internal/pipeline"
	"github.com/lsmon/nativedeps/internal/platform"
	"github.com/lsmon/nativedeps/internal/vcs"
)

var installCmd = &cobra.Command{
	Use:   "install <root> <version> [dependency...]",
	Short: "Build and install dependencies into <root>",
	Long: `Install clones or updates every selected dependency under <root>, builds
it, packs it and merges its libraries into <root>/lib and its headers into
<root>/include. Without dependency names every configured dependency is
installed, in manifest order.`,
	Example: `  nativedeps install /opt/sdk 1.2.0
  nativedeps install ./external 1.2.0 netpp scheduler`,
	Args: cobra.MinimumNArgs(2),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// installRequest is the validated form of the install arguments.
type installRequest struct {
	Root    string
	Version string
	Names   []string
}

func parseInstallArgs(args []string) (installRequest, error) {
	if len(args) < 2 {
		return installRequest{}, fmt.Errorf("install needs <root> and <version>")
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return installRequest{}, fmt.Errorf("root: %w", err)
	}
	if err := config.ValidateVersion(args[1]); err != nil {
		return installRequest{}, err
	}
	return installRequest{Root: root, Version: args[1], Names: args[2:]}, nil
}

// newRunContext resolves everything a run needs before any stage starts.
func newRunContext(c *config.Config, req installRequest) (pipeline.RunContext, []deps.Descriptor, error) {
	manifest, err := c.LoadManifest()
	if err != nil {
		return pipeline.RunContext{}, nil, err
	}
	selected, err := manifest.Select(req.Names...)
	if err != nil {
		return pipeline.RunContext{}, nil, err
	}
	profile, err := c.Profile()
	if err != nil {
		return pipeline.RunContext{}, nil, err
	}
	rc := pipeline.RunContext{
		RootPath:   req.Root,
		Version:    req.Version,
		Profile:    profile,
		BuildType:  c.BuildType,
		Generator:  c.Generator,
		Jobs:       c.Jobs,
		StrictSync: c.StrictSync,
	}
	return rc, selected, nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	req, err := parseInstallArgs(args)
	if err != nil {
		return err
	}
	if msg := config.VersionWarning(req.Version); msg != "" {
		logger.Warn(msg)
	}
	rc, selected, err := newRunContext(cfg, req)
	if err != nil {
		return err
	}
	if kernel, err := platform.KernelName(); err == nil {
		if msg := platform.CheckKernel(rc.Profile, kernel); msg != "" {
			logger.Warn(msg)
		}
	}
	logger.Info("installing", "root", rc.RootPath, "version", rc.Version, "platform", rc.Profile.Tag, "deps", len(selected))

	runner := newRunner(cmd.ErrOrStderr())
	p := pipeline.New(pipeline.Options{
		Runner: runner,
		VCS:    vcs.NewGitVCS(runner, vcs.WithGitPath(cfg.Tools.Git)),
		Logger: logger,
	})
	if err := p.Run(cmd.Context(), rc, selected); err != nil {
		return err
	}
	logger.Info("done", "lib", rc.InstallRoot().LibDir, "include", rc.InstallRoot().IncludeDir)
	return nil
}
