package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/runner"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Tick a tree until it settles",
	Long: `Loads the tree defined in <file> and ticks it at a fixed cadence until it
returns something other than RUNNING, the tick budget is spent or the process is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		maxTicks, _ := cmd.Flags().GetInt("max-ticks")
		jsonMode, _ := cmd.Flags().GetBool("json")
		target, err := targetFlag(cmd)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		eng, trees, err := loadEngine(ctx, args)
		if err != nil {
			return err
		}
		tree := trees[0]

		out := cmd.OutOrStdout()
		var reporter runner.Reporter = runner.NewTextReporter(out)
		if jsonMode {
			reporter = runner.NewJSONReporter(out)
		} else if tui.IsTerminal(out) {
			tui.PrintBanner(out)
		}

		r := runner.New(
			runner.WithInterval(interval),
			runner.WithMaxTicks(maxTicks),
			runner.WithReporter(reporter),
			runner.WithTickFunc(func(ctx context.Context, tree *bt.BehaviorTree, target any) (domain.Status, error) {
				return eng.Tick(ctx, tree.ID(), target)
			}),
		)

		status, err := r.Run(ctx, tree, target)
		if !jsonMode {
			report(cmd, ctx, status, err)
		}
		switch {
		case errors.Is(err, runner.ErrTickBudget):
			return err
		case err != nil && ctx.Signal() == nil:
			return err
		case status == domain.StatusFailure || status == domain.StatusError:
			return fmt.Errorf("tree %q finished with %s", tree.Name(), status)
		}
		return nil
	},
}

func report(cmd *cobra.Command, ctx *cli.SignalContext, status domain.Status, err error) {
	out := cmd.OutOrStdout()
	switch {
	case ctx.Signal() != nil:
		cli.PrintSystemMessage(out, "Interrupted (%s) while %s.", strings.ToLower(ctx.Signal().String()), status)
	case err == nil:
		cli.PrintSystemMessage(out, "Finished with %s.", status)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("interval", runner.DefaultInterval, "Pause between ticks of a running tree")
	runCmd.Flags().Int("max-ticks", 0, "Stop after this many ticks (0 means unbounded)")
	runCmd.Flags().Bool("json", false, "Report ticks as JSON lines")
	addTargetFlag(runCmd)
}
