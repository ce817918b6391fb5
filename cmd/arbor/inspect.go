package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/presentation/tui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show a tree outline with its runtime state",
	Long: `Builds the tree, optionally ticks it, and renders an outline of its nodes,
their last statuses, the active path and the shared blackboard.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticks, _ := cmd.Flags().GetInt("ticks")
		raw, _ := cmd.Flags().GetBool("raw")
		target, err := targetFlag(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		eng, trees, err := loadEngine(ctx, args)
		if err != nil {
			return err
		}
		tree := trees[0]
		if err := tickN(ctx, eng, tree.ID(), ticks, target); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		md := tui.Outline(tree)
		if raw {
			fmt.Fprint(out, md)
			return nil
		}

		render, err := tui.NewRenderer(tui.IsTerminal(out), tui.Width(out))
		if err != nil {
			return err
		}
		rendered, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Int("ticks", 0, "Tick the tree this many times before inspecting")
	inspectCmd.Flags().Bool("raw", false, "Print the markdown outline without rendering")
	addTargetFlag(inspectCmd)
}
