package cli

import (
	"github.com/spf13/cobra"
)

func newPollOriginalCmd(flags *globalFlags) *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "poll-original",
		Short: "Scan watched original branches for upstream changes to recombine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, logger, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()
			return o.PollOriginal(cmd.Context(), branch)
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "only poll this original branch")
	return cmd
}
