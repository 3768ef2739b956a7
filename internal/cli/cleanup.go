package cli

import (
	"github.com/spf13/cobra"
)

func newCleanupCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stale recombination scratch branches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, logger, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()
			return o.Cleanup(cmd.Context())
		},
	}
	return cmd
}
