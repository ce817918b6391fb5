package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/bt"
)

// loadEngine builds an engine from the global flags and loads every path.
func loadEngine(ctx context.Context, paths []string, extra ...arbor.Option) (*arbor.Engine, []*bt.BehaviorTree, error) {
	logger, err := cli.NewLogger(globalOpts)
	if err != nil {
		return nil, nil, err
	}
	eng, err := cli.CreateEngine(globalOpts, logger, extra...)
	if err != nil {
		return nil, nil, err
	}

	trees := make([]*bt.BehaviorTree, 0, len(paths))
	for _, path := range paths {
		tree, err := eng.LoadFile(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		trees = append(trees, tree)
	}
	return eng, trees, nil
}

// tickN ticks a tree n times, stopping early once it settles.
func tickN(ctx context.Context, eng *arbor.Engine, id string, n int, target any) error {
	for range n {
		status, err := eng.Tick(ctx, id, target)
		if err != nil {
			return err
		}
		if status.Terminal() {
			return nil
		}
	}
	return nil
}

// addTargetFlag registers --target on cmd.
func addTargetFlag(cmd *cobra.Command) {
	cmd.Flags().String("target", "", "JSON value passed to every tick as the target")
}

func targetFlag(cmd *cobra.Command) (any, error) {
	raw, _ := cmd.Flags().GetString("target")
	if raw == "" {
		return nil, nil
	}
	var target any
	if err := json.Unmarshal([]byte(raw), &target); err != nil {
		return nil, fmt.Errorf("invalid --target: %w", err)
	}
	return target, nil
}
