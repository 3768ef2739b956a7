package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVoteRecombinationsCmd(flags *globalFlags) *cobra.Command {
	var (
		testsDir string
		recombID string
	)

	cmd := &cobra.Command{
		Use:   "vote-recombinations",
		Short: "Score prepared recombinations by their test result files and vote",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if testsDir == "" {
				return fmt.Errorf("vote-recombinations: -t DIR is required")
			}
			o, logger, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()
			return o.VoteRecombinations(cmd.Context(), testsDir, recombID)
		},
	}

	cmd.Flags().StringVarP(&testsDir, "tests-dir", "t", "", "tests basedir to read vars.yaml/results from")
	cmd.Flags().StringVarP(&recombID, "recomb", "r", "", "only vote on this recombination, by review number")
	return cmd
}
