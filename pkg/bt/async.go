package bt

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// AsyncFunc is the deferred logic of an AsyncTask leaf. It runs on its own
// goroutine and should resolve to StatusSuccess or StatusFailure. Any other
// status, a non-nil error or a panic settles the node as StatusError.
//
// ctx is cancelled when the node closes or its timeout fires.
type AsyncFunc func(ctx context.Context, ec *ExecutionContext) (domain.Status, error)

// activation is the in-memory side of one Open of an AsyncTask.
type activation struct {
	cancel context.CancelFunc
	timer  *time.Timer
}

func (a *activation) stop() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.cancel()
}

// asyncTask bridges a goroutine into the synchronous tick protocol.
// Open launches the work and stores asyncStatus=Running on the node board;
// the goroutine later posts the terminal status there. Every activation
// carries a token so that only the activation that is still current, and
// still Running, may settle the board.
type asyncTask struct {
	BaseLifecycle
	fn      AsyncFunc
	timeout time.Duration
	live    sync.Map // token -> *activation

	// beforeLiveCheck runs between reading a Running status and looking up
	// its activation. Tests use it to interleave a settling goroutine.
	beforeLiveCheck func()
}

func (t *asyncTask) Open(ec *ExecutionContext, board *blackboard.NodeBoard) {
	t.launch(ec, board)
}

func (t *asyncTask) Run(ec *ExecutionContext, board *blackboard.NodeBoard) domain.Status {
	raw := board.Get(domain.KeyAsyncStatus)
	status, ok := domain.ParseStatus(raw)
	if !ok {
		ec.Log(domain.SeverityErr, "invalid async status on board", "value", raw)
		return domain.StatusError
	}
	if status != domain.StatusRunning {
		return status
	}
	token := board.Get(domain.KeyAsyncToken)
	if t.beforeLiveCheck != nil {
		t.beforeLiveCheck()
	}
	if _, alive := t.live.Load(token); alive {
		return status
	}
	// Boards restored from a snapshot say Running but nothing is working on them.
	// The worker settles before it forgets its activation, so a missing
	// activation may also mean the result has just landed.
	return t.relaunch(ec, board, token)
}

// relaunch starts a new activation only if the board still holds the same
// Running activation. Otherwise it returns whatever the board now says.
func (t *asyncTask) relaunch(ec *ExecutionContext, board *blackboard.NodeBoard, stale any) domain.Status {
	var (
		fresh   string
		current domain.Status
	)
	board.Update(func(v blackboard.View) {
		current, _ = domain.ParseStatus(v.Get(domain.KeyAsyncStatus))
		if current != domain.StatusRunning || v.Get(domain.KeyAsyncToken) != stale {
			return
		}
		fresh = uuid.NewString()
		v.Set(domain.KeyAsyncToken, fresh)
	})
	if fresh == "" {
		return current
	}
	ec.Log(domain.SeverityNotice, "relaunching async task without a live activation")
	t.start(ec, board, fresh)
	return domain.StatusRunning
}

func (t *asyncTask) Close(ec *ExecutionContext, board *blackboard.NodeBoard) {
	token := board.Get(domain.KeyAsyncToken)
	if act, ok := t.live.LoadAndDelete(token); ok {
		act.(*activation).stop()
	}
	ec.Log(domain.SeverityDebug, "async task closed", "status", board.Get(domain.KeyAsyncStatus))
	board.Update(func(v blackboard.View) {
		v.Unset(domain.KeyAsyncStatus)
		v.Unset(domain.KeyAsyncToken)
	})
}

func (t *asyncTask) launch(ec *ExecutionContext, board *blackboard.NodeBoard) {
	token := uuid.NewString()
	board.Update(func(v blackboard.View) {
		v.Set(domain.KeyAsyncStatus, domain.StatusRunning)
		v.Set(domain.KeyAsyncToken, token)
	})
	t.start(ec, board, token)
}

// start runs the activation identified by token, already stored on the board.
func (t *asyncTask) start(ec *ExecutionContext, board *blackboard.NodeBoard, token string) {
	if t.fn == nil {
		ec.Log(domain.SeverityErr, "async task has no function")
		t.settle(ec, board, token, domain.StatusError)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ec.Context()))
	act := &activation{cancel: cancel}
	if t.timeout > 0 {
		act.timer = time.AfterFunc(t.timeout, func() {
			ec.Log(domain.SeverityWarning, "async task timed out", "timeout", t.timeout.String())
			t.settle(ec, board, token, domain.StatusFailure)
			cancel()
		})
	}
	t.live.Store(token, act)

	go func() {
		status := t.call(ctx, ec)
		t.settle(ec, board, token, status)
		if a, ok := t.live.LoadAndDelete(token); ok {
			a.(*activation).stop()
		}
	}()
}

func (t *asyncTask) call(ctx context.Context, ec *ExecutionContext) (status domain.Status) {
	defer func() {
		if r := recover(); r != nil {
			ec.Log(domain.SeverityErr, "failed to run async task",
				"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			status = domain.StatusError
		}
	}()

	result, err := t.fn(ctx, ec)
	if err != nil {
		ec.Log(domain.SeverityErr, "async task rejected", "error", err)
		return domain.StatusError
	}
	if result != domain.StatusSuccess && result != domain.StatusFailure {
		ec.Log(domain.SeverityErr, "async task resolved to an invalid status", "status", string(result))
		return domain.StatusError
	}
	return result
}

// settle writes status if token is still the current activation and the
// board still says Running. It reports whether the write happened.
func (t *asyncTask) settle(ec *ExecutionContext, board *blackboard.NodeBoard, token string, status domain.Status) bool {
	applied := false
	board.Update(func(v blackboard.View) {
		if v.Get(domain.KeyAsyncToken) != token {
			return
		}
		if current, _ := domain.ParseStatus(v.Get(domain.KeyAsyncStatus)); current != domain.StatusRunning {
			return
		}
		v.Set(domain.KeyAsyncStatus, status)
		applied = true
	})
	if !applied {
		ec.Log(domain.SeverityWarning, "ignoring late async result", "status", string(status))
	}
	return applied
}

// NewAsyncTask creates a leaf that runs fn on its own goroutine when it opens.
// The node reports Running until fn settles. With timeout > 0 the node fails
// once the timeout elapses, and any later result is discarded.
func NewAsyncTask(name string, fn AsyncFunc, timeout time.Duration, opts ...NodeOption) *Node {
	opts = append([]NodeOption{WithName(name)}, opts...)
	if timeout > 0 {
		opts = append(opts, WithProperties(map[string]any{"timeout": timeout.String()}))
	}
	return NewNode(domain.CategoryTask, TypeAsyncTask, &asyncTask{fn: fn, timeout: timeout}, opts...)
}
