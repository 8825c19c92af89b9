package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/whodunit"
	"github.com/aretw0/whodunit/internal/presentation/tui"
	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/runner"
	"github.com/aretw0/whodunit/pkg/scenario"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a mystery in the terminal",
	Long: `Starts a new session and plays it interactively.

Without --scenario a fresh mystery is generated by the model. With --offline
(or no LLM_API_KEY) the built-in Ashcombe Manor mystery is played against
scripted suspects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		path, _ := cmd.Flags().GetString("scenario")
		name, _ := cmd.Flags().GetString("name")
		roleFlag, _ := cmd.Flags().GetString("role")

		role, err := domain.ParseRole(roleFlag)
		if err != nil {
			return err
		}
		var sc *scenario.Scenario
		if path != "" {
			if sc, err = scenario.Load(path); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger, appOptions{offline: offline, scenario: sc})
		if err != nil {
			return err
		}
		defer a.close()

		out := cmd.OutOrStdout()
		opts := []runner.Option{
			runner.WithInput(cmd.InOrStdin()),
			runner.WithOutput(out),
			runner.WithSanitizer(cfg.Sanitizer()),
			runner.WithLogger(logger),
		}
		if tui.IsTerminal(out) {
			tui.PrintBanner(out, whodunit.Version)
			opts = append(opts, runner.WithRenderer(tui.NewRenderer()))
		}
		fmt.Fprintln(out, "Setting the scene...")

		id, err := a.begin(ctx, characters.NewPlayer(name, role))
		if err != nil {
			return err
		}
		defer a.engine.Close(context.WithoutCancel(ctx), id)

		err = runner.NewRunner(opts...).Run(ctx, a.engine, id)
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nThe case goes cold.")
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("offline", false, "Play the built-in mystery without a model")
	playCmd.Flags().StringP("scenario", "s", "", "Scenario file (YAML or JSON) to play instead of generating one")
	playCmd.Flags().StringP("name", "n", "", "Your character's name")
	playCmd.Flags().String("role", "detective", "Play as the detective or the killer")

	rootCmd.RunE = playCmd.RunE
	rootCmd.Flags().AddFlagSet(playCmd.Flags())
}
