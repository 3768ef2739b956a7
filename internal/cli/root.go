// Package cli builds the gitnetics command-line surface: a cobra root
// command carrying the global project-selection flags (spec.md §6) plus
// one subcommand per orchestrator method. Grounded on
// jonnii-stackit/cmd/stackit/main.go + internal/cli/root.go's cobra
// idiom (root command owning persistent flags, one New*Cmd() constructor
// per subcommand file, flags captured by RunE's closure).
package cli

import (
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags every subcommand reads to build
// its Orchestrator (spec.md §6 CLI surface).
type globalFlags struct {
	ProjectsConf  string
	BaseDir       string
	Projects      string
	WatchMethod   string
	WatchBranches string
	NoFetch       bool
}

// NewRootCmd builds the gitnetics root command.
func NewRootCmd(version, commit, date string) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "gitnetics",
		Short:   "gitnetics reconciles a replica's local diversity patches against an upstream original",
		Version: version,
		Long: `gitnetics scans an original repository for upstream changes, trial-merges
them against a replica's local diversity patches, and drives the resulting
recombinations through review to a merged target branch.

Version: ` + version + `
Commit:  ` + commit + `
Date:    ` + date,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.ProjectsConf, "projects-conf", "", "path to the projects configuration YAML file")
	rootCmd.PersistentFlags().StringVar(&flags.BaseDir, "base-dir", ".", "base directory holding each project's working tree")
	rootCmd.PersistentFlags().StringVar(&flags.Projects, "projects", "", "comma-separated project name filter")
	rootCmd.PersistentFlags().StringVar(&flags.WatchMethod, "watch-method", "", "filter to projects whose original.watch-method matches")
	rootCmd.PersistentFlags().StringVar(&flags.WatchBranches, "watch-branches", "", "comma-separated branch list overriding each selected project's watch-branches")
	rootCmd.PersistentFlags().BoolVar(&flags.NoFetch, "no-fetch", false, "skip fetching remotes while bootstrapping projects")

	_ = rootCmd.MarkPersistentFlagRequired("projects-conf")

	rootCmd.AddCommand(newPollOriginalCmd(flags))
	rootCmd.AddCommand(newPollReplicaCmd(flags))
	rootCmd.AddCommand(newMergeRecombinationsCmd(flags))
	rootCmd.AddCommand(newPrepareTestsCmd(flags))
	rootCmd.AddCommand(newVoteRecombinationsCmd(flags))
	rootCmd.AddCommand(newCleanupCmd(flags))

	return rootCmd
}
