package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/ports"
)

// Locker implements ports.DistributedLocker within one process.
// It is useful in tests and single-replica deployments; the TTL releases a
// lock whose holder never unlocked it.
type Locker struct {
	mu    sync.Mutex
	held  map[string]uint64
	seq   uint64
	freed chan struct{}
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{
		held:  make(map[string]uint64),
		freed: make(chan struct{}),
	}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		if _, busy := l.held[key]; !busy {
			l.seq++
			token := l.seq
			l.held[key] = token
			l.mu.Unlock()

			var expiry *time.Timer
			if ttl > 0 {
				expiry = time.AfterFunc(ttl, func() { l.release(key, token) })
			}
			return func(context.Context) error {
				if expiry != nil {
					expiry.Stop()
				}
				l.release(key, token)
				return nil
			}, nil
		}
		wait := l.freed
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

func (l *Locker) release(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return
	}
	delete(l.held, key)
	close(l.freed)
	l.freed = make(chan struct{})
}
