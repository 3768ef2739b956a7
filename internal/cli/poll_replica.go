package cli

import (
	"github.com/spf13/cobra"
)

func newPollReplicaCmd(flags *globalFlags) *cobra.Command {
	var changeID string

	cmd := &cobra.Command{
		Use:   "poll-replica",
		Short: "Intake local diversity patches pushed directly to a patches branch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, logger, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()
			return o.PollReplica(cmd.Context(), changeID)
		},
	}

	cmd.Flags().StringVarP(&changeID, "change", "c", "", "handle only this patches change, by review number")
	return cmd
}
