package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the tree visualization",
	Long: `Builds the tree and outputs a Mermaid diagram (graph TD) of its shape.
With --ticks the tree is ticked first and the diagram carries the resulting statuses.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticks, _ := cmd.Flags().GetInt("ticks")
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

		var overlay *graph.Overlay
		if ticks > 0 {
			if err := tickN(ctx, eng, tree.ID(), ticks, target); err != nil {
				return err
			}
			overlay = graph.OverlayFromTree(tree)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(tree.Root(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int("ticks", 0, "Tick the tree this many times before rendering")
	addTargetFlag(graphCmd)
}
