package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrepareTestsCmd(flags *globalFlags) *cobra.Command {
	var (
		testsDir string
		recombID string
	)

	cmd := &cobra.Command{
		Use:   "prepare-tests",
		Short: "Fetch untested recombinations and write their test-run metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if testsDir == "" {
				return fmt.Errorf("prepare-tests: -t DIR is required")
			}
			o, logger, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()
			return o.PrepareTests(cmd.Context(), testsDir, recombID)
		},
	}

	cmd.Flags().StringVarP(&testsDir, "tests-dir", "t", "", "tests basedir to write test artifacts under")
	cmd.Flags().StringVarP(&recombID, "recomb", "r", "", "only prepare this recombination, by review number")
	return cmd
}
