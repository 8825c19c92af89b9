package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/whodunit/internal/presentation/graph"
	"github.com/aretw0/whodunit/pkg/scenario"
)

var mapCmd = &cobra.Command{
	Use:   "map <scenario>",
	Short: "Print a scenario's location map as a Mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		var overlay *graph.Overlay
		if spoilers, _ := cmd.Flags().GetBool("spoilers"); spoilers {
			overlay = &graph.Overlay{Scene: sc.Murder.LocationOfDeath}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(sc.DomainLocations(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().Bool("spoilers", false, "Highlight the scene of the murder")
}
