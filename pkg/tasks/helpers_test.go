package tasks_test

import (
	"context"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

type definitionTree struct {
	*bt.BehaviorTree
}

func (d *definitionTree) tick() domain.Status {
	return d.Tick(context.Background(), nil)
}

func (d *definitionTree) ticks(n int) []domain.Status {
	out := make([]domain.Status, n)
	for i := range out {
		out[i] = d.tick()
	}
	return out
}
