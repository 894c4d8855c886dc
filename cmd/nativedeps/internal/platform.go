package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lsmon/nativedeps/internal/platform"
)

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Show the active platform profile",
	Args:  cobra.NoArgs,
	RunE:  runPlatform,
}

func init() {
	rootCmd.AddCommand(platformCmd)
}

func runPlatform(cmd *cobra.Command, args []string) error {
	p, err := cfg.Profile()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "platform:  %s\n", p.Tag)
	fmt.Fprintf(out, "cmake:     %s\n", p.BuildTool)
	fmt.Fprintf(out, "cpack:     %s\n", p.PackageTool)
	fmt.Fprintf(out, "postfix:   %s\n", p.OSPostfix)
	if !p.Compilers.IsZero() {
		fmt.Fprintf(out, "compilers: %s %s\n", p.Compilers.C, p.Compilers.CXX)
	}

	kernel, err := platform.KernelName()
	if err != nil {
		logger.Warn("kernel name unavailable", "err", err)
		return nil
	}
	fmt.Fprintf(out, "kernel:    %s\n", kernel)
	if msg := platform.CheckKernel(p, kernel); msg != "" {
		logger.Warn(msg)
	}
	return nil
}
