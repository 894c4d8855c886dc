package internal

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lsmon/nativedeps/internal/config"
	"github.com/lsmon/nativedeps/internal/deps"
	"github.com/lsmon/nativedeps/internal/pipeline"
	"github.com/lsmon/nativedeps/internal/vcs"
)

var (
	listRemote bool
	listRoot   string
)

var listCmd = &cobra.Command{
	Use:   "list [version]",
	Short: "List configured dependencies",
	Long: `List prints every configured dependency with the archive it produces on
this platform. Without a version the archive name shows a placeholder.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listRemote, "remote", false, "query the commit each tracked branch points at")
	listCmd.Flags().StringVar(&listRoot, "root", "", "show the version installed into this root")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	version := "<version>"
	if len(args) == 1 {
		if err := config.ValidateVersion(args[0]); err != nil {
			return err
		}
		if msg := config.VersionWarning(args[0]); msg != "" {
			logger.Warn(msg)
		}
		version = args[0]
	}
	manifest, err := cfg.LoadManifest()
	if err != nil {
		return err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}

	var receipts *pipeline.Receipts
	if listRoot != "" {
		if receipts, err = pipeline.LoadReceipts(listRoot); err != nil {
			return err
		}
	}

	var git vcs.VCS
	if listRemote {
		git = vcs.NewGitVCS(newRunner(cmd.ErrOrStderr()), vcs.WithGitPath(cfg.Tools.Git))
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	header := "NAME\tDIR\tMODE\tARCHIVE\tURL"
	if receipts != nil {
		header += "\tINSTALLED"
	}
	if listRemote {
		header += "\tHEAD"
	}
	fmt.Fprintln(w, header)
	for _, d := range manifest.Dependencies {
		d = d.WithVersion(version)
		archive := "-"
		if d.Install.Mode != deps.ModeDirect {
			archive = deps.ArchiveName(d, profile)
		}
		row := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", d.Name, d.Dir, d.Install.Mode, archive, d.SourceURL)
		if receipts != nil {
			installed := "-"
			if e, ok := receipts.Get(d.Name); ok {
				installed = e.Version
			}
			row += "\t" + installed
		}
		if listRemote {
			head, err := git.Latest(cmd.Context(), d.SourceURL, d.Branch)
			if err != nil {
				logger.Warn("remote query failed", "dep", d.Name, "err", err)
				head = "?"
			} else if len(head) > 12 {
				head = head[:12]
			}
			row += "\t" + head
		}
		fmt.Fprintln(w, row)
	}
	return w.Flush()
}
