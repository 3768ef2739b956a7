package cli

import (
	"github.com/spf13/cobra"
)

func newMergeRecombinationsCmd(flags *globalFlags) *cobra.Command {
	var recombID string

	cmd := &cobra.Command{
		Use:   "merge-recombinations",
		Short: "Scan for approved recombinations ready to submit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, logger, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()
			return o.MergeRecombinations(cmd.Context(), recombID)
		},
	}

	cmd.Flags().StringVarP(&recombID, "recomb", "r", "", "only act on this recombination, by review number")
	return cmd
}
