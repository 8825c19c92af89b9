package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/whodunit"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of whodunit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "whodunit version %s\n", strings.TrimSpace(whodunit.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
