package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

// ErrTickBudget is returned when the tree is still running after the maximum
// number of ticks.
var ErrTickBudget = errors.New("tick budget exhausted")

// TickFunc performs one tick of tree.
type TickFunc func(ctx context.Context, tree *bt.BehaviorTree, target any) (domain.Status, error)

// Runner ticks a tree repeatedly until it settles.
type Runner struct {
	interval time.Duration
	maxTicks int
	tickFn   TickFunc
	reporter Reporter
	logger   *slog.Logger
	until    func(Report) bool
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		interval: DefaultInterval,
		logger:   logging.NewNop(),
		until:    settled,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.until == nil {
		r.until = settled
	}
	return r
}

func settled(rep Report) bool {
	return rep.Status != domain.StatusRunning
}

// Run ticks tree with target until the stop condition holds.
// It returns the last status together with ctx.Err() on cancellation or
// ErrTickBudget when the budget runs out first.
func (r *Runner) Run(ctx context.Context, tree *bt.BehaviorTree, target any) (domain.Status, error) {
	if tree == nil {
		return domain.StatusError, fmt.Errorf("runner: %w", domain.ErrTreeNotFound)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	status := domain.StatusRunning
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return status, err
		}

		rep, err := r.tick(ctx, tree, target, n)
		if err != nil {
			return rep.Status, err
		}
		status = rep.Status

		if r.reporter != nil {
			if err := r.reporter.Report(ctx, rep); err != nil {
				return status, fmt.Errorf("report error: %w", err)
			}
		}

		if r.until(rep) {
			r.logger.Debug("tree settled", "tree_id", tree.ID(), "status", status, "ticks", n)
			return status, nil
		}
		if r.maxTicks > 0 && n >= r.maxTicks {
			r.logger.Warn("tick budget exhausted", "tree_id", tree.ID(), "ticks", n)
			return status, ErrTickBudget
		}

		if r.interval > 0 {
			if timer == nil {
				timer = time.NewTimer(r.interval)
			} else {
				timer.Reset(r.interval)
			}
			select {
			case <-ctx.Done():
				return status, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

func (r *Runner) tick(ctx context.Context, tree *bt.BehaviorTree, target any, n int) (Report, error) {
	start := time.Now()
	var status domain.Status
	if r.tickFn != nil {
		var err error
		status, err = r.tickFn(ctx, tree, target)
		if err != nil {
			return Report{Status: domain.StatusError}, fmt.Errorf("tick failed: %w", err)
		}
	} else {
		status = tree.Tick(ctx, target)
	}

	active := tree.ActiveNodes()
	names := make([]string, len(active))
	for i, node := range active {
		names[i] = node.Name()
	}

	return Report{
		TreeID:      tree.ID(),
		TreeName:    tree.Name(),
		Tick:        n,
		Status:      status,
		Duration:    time.Since(start),
		ActiveNodes: names,
	}, nil
}
