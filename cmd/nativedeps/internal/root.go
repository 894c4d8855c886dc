package internal

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lsmon/nativedeps/internal/command"
	"github.com/lsmon/nativedeps/internal/config"
	"github.com/lsmon/nativedeps/internal/env"
)

var cfgFile string

// Resolved by PersistentPreRunE before any subcommand runs.
var (
	cfg    *config.Config
	logger = log.New(io.Discard)
)

var rootCmd = &cobra.Command{
	Use:   "nativedeps",
	Short: "nativedeps builds native dependencies into a local SDK tree",
	Long: `nativedeps clones each configured dependency, builds it with cmake,
packs the build with cpack and merges the resulting lib/ and include/
directories into an install root.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	defaultConfig := "<user config dir>/nativedeps/config.yaml"
	if path, err := env.ConfigFile(); err == nil {
		defaultConfig = path
	}
	flags.StringVar(&cfgFile, "config", "", "config file (default is "+defaultConfig+")")
	flags.BoolP("verbose", "v", false, "log every command and stream build output")
	flags.String("manifest", "", "dependency manifest (default is the built-in catalog)")
	flags.IntP("jobs", "j", 12, "build parallelism handed to cmake; 0 leaves it to the build tool")
	flags.String("build-type", "Debug", "cmake build type")
	flags.String("generator", "", "cmake generator, e.g. Ninja (default is cmake's choice)")
	flags.Bool("strict-sync", false, "fail when a checkout's remote status cannot be queried")
	flags.String("os-postfix", "", "override the archive name postfix of the platform")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, path, err := config.Load(config.LoadOptions{
		ConfigFile: cfgFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}
	cfg = c
	logger = newLogger(cmd.ErrOrStderr(), c.Verbose)
	if path != "" {
		logger.Debug("config", "file", path)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Prefix: "nativedeps"})
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// newRunner returns the runner used for git, cmake and cpack. Tool output
// is streamed only in verbose mode.
func newRunner(w io.Writer) *command.Exec {
	r := &command.Exec{Logger: logger}
	if cfg != nil && cfg.Verbose {
		r.Stdout = w
		r.Stderr = w
	}
	return r
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(version string) {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
