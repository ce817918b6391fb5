package bt_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asyncStatus(tree *bt.BehaviorTree, n *bt.Node) any {
	board, ok := tree.TreeBoard().Node(n.ID())
	if !ok {
		return nil
	}
	return board.Get(domain.KeyAsyncStatus)
}

func TestAsyncTask_ResolvesBetweenTicks(t *testing.T) {
	release := make(chan struct{})
	leaf := bt.NewAsyncTask("fetch", func(ctx context.Context, _ *bt.ExecutionContext) (domain.Status, error) {
		<-release
		return domain.StatusSuccess, nil
	}, 0)
	tree := bt.New(leaf)

	assert.Equal(t, domain.StatusRunning, tree.Tick(context.Background(), nil))
	assert.Equal(t, domain.StatusRunning, tree.Tick(context.Background(), nil))

	close(release)
	require.Eventually(t, func() bool {
		return asyncStatus(tree, leaf) == domain.StatusSuccess
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.StatusSuccess, tree.Tick(context.Background(), nil))
	assert.Nil(t, asyncStatus(tree, leaf), "close clears the async status")
}

func TestAsyncTask_TimeoutWinsOverLateResult(t *testing.T) {
	rec := &recorder{}
	release := make(chan struct{})
	leaf := bt.NewAsyncTask("slow", func(ctx context.Context, _ *bt.ExecutionContext) (domain.Status, error) {
		<-release
		return domain.StatusSuccess, nil
	}, 20*time.Millisecond)
	tree := bt.New(leaf, bt.WithLogger(rec))

	require.Equal(t, domain.StatusRunning, tree.Tick(context.Background(), nil))
	require.Eventually(t, func() bool {
		return asyncStatus(tree, leaf) == domain.StatusFailure
	}, time.Second, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool {
		return rec.has(domain.SeverityWarning, "ignoring late async result")
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.StatusFailure, asyncStatus(tree, leaf))
	assert.Equal(t, domain.StatusFailure, tree.Tick(context.Background(), nil))
}

func TestAsyncTask_RejectionIsError(t *testing.T) {
	tests := []struct {
		name string
		fn   bt.AsyncFunc
	}{
		{"error", func(context.Context, *bt.ExecutionContext) (domain.Status, error) {
			return domain.StatusSuccess, errors.New("boom")
		}},
		{"invalid status", func(context.Context, *bt.ExecutionContext) (domain.Status, error) {
			return domain.StatusRunning, nil
		}},
		{"panic", func(context.Context, *bt.ExecutionContext) (domain.Status, error) {
			panic("kaput")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaf := bt.NewAsyncTask("x", tt.fn, 0)
			tree := bt.New(leaf)
			tree.Tick(context.Background(), nil)

			require.Eventually(t, func() bool {
				return asyncStatus(tree, leaf) == domain.StatusError
			}, time.Second, 5*time.Millisecond)
			assert.Equal(t, domain.StatusError, tree.Tick(context.Background(), nil))
		})
	}
}

func TestAsyncTask_CloseCancelsWork(t *testing.T) {
	cancelled := make(chan struct{})
	leaf := bt.NewAsyncTask("watch", func(ctx context.Context, _ *bt.ExecutionContext) (domain.Status, error) {
		<-ctx.Done()
		close(cancelled)
		return domain.StatusFailure, ctx.Err()
	}, 10*time.Millisecond)
	tree := bt.New(leaf)

	tree.Tick(context.Background(), nil)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("async work was not cancelled after the timeout")
	}
}

func TestAsyncTask_TickContextCancellationDoesNotAbortWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	leaf := bt.NewAsyncTask("bg", func(ctx context.Context, _ *bt.ExecutionContext) (domain.Status, error) {
		select {
		case <-release:
			return domain.StatusSuccess, nil
		case <-ctx.Done():
			return domain.StatusFailure, ctx.Err()
		}
	}, 0)
	tree := bt.New(leaf)

	tree.Tick(ctx, nil)
	cancel()
	close(release)

	require.Eventually(t, func() bool {
		return asyncStatus(tree, leaf) == domain.StatusSuccess
	}, time.Second, 5*time.Millisecond)
}

func TestAsyncTask_RelaunchesAfterRestore(t *testing.T) {
	calls := make(chan struct{}, 4)
	fn := func(context.Context, *bt.ExecutionContext) (domain.Status, error) {
		calls <- struct{}{}
		return domain.StatusSuccess, nil
	}

	leaf := bt.NewAsyncTask("job", fn, 0, bt.WithID("job"))
	tree := bt.New(leaf, bt.WithTreeID("T"))

	// A board captured mid-flight by another process.
	board := tree.TreeBoard().GetOrCreateNode("job")
	board.OpenNode()
	board.Set(domain.KeyAsyncStatus, string(domain.StatusRunning))
	board.Set(domain.KeyAsyncToken, "stale-token")

	assert.Equal(t, domain.StatusRunning, tree.Tick(context.Background(), nil))
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("async work was not relaunched")
	}
	require.Eventually(t, func() bool {
		return asyncStatus(tree, leaf) == domain.StatusSuccess
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.StatusSuccess, tree.Tick(context.Background(), nil))
}

func TestAsyncTask_SettledBeforeLiveCheckIsNotRelaunched(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	leaf := bt.NewAsyncTask("job", func(context.Context, *bt.ExecutionContext) (domain.Status, error) {
		calls.Add(1)
		<-release
		return domain.StatusSuccess, nil
	}, 0)
	tree := bt.New(leaf)

	require.Equal(t, domain.StatusRunning, tree.Tick(context.Background(), nil))

	// The worker settles and forgets its activation after Run has read Running.
	var once sync.Once
	bt.SetBeforeLiveCheck(leaf, func() {
		once.Do(func() {
			close(release)
			require.Eventually(t, func() bool {
				return bt.LiveActivations(leaf) == 0
			}, time.Second, time.Millisecond)
		})
	})

	assert.Equal(t, domain.StatusSuccess, tree.Tick(context.Background(), nil))
	assert.Never(t, func() bool { return calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Nil(t, asyncStatus(tree, leaf))
}
