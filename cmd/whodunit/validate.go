package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/whodunit/pkg/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario>...",
	Short: "Check scenario files for consistency",
	Long: `Loads each scenario file and reports every structural problem: unknown
locations, clues placed nowhere, a killer missing from the cast. One-way
passages between locations are reported as warnings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			if err := validateFile(cmd, path); err != nil {
				failed++
				fmt.Fprintf(out, "%s: invalid\n", path)
				if errs := scenario.ValidationErrors(err); errs != nil {
					for _, e := range errs {
						fmt.Fprintf(out, "  - %v\n", e)
					}
				} else {
					fmt.Fprintf(out, "  - %v\n", err)
				}
				continue
			}
			fmt.Fprintf(out, "%s: ok\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios invalid", failed, len(args))
		}
		return nil
	},
}

func validateFile(cmd *cobra.Command, path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	for _, e := range sc.AsymmetricEdges() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: warning: %s connects to %s but not back\n", path, e.From, e.To)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
