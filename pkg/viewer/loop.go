package viewer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTickInterval is roughly one animation frame.
const DefaultTickInterval = 16 * time.Millisecond

// ErrLoopClosed is returned by Dispatch once the loop has exited.
var ErrLoopClosed = errors.New("viewer loop closed")

type request struct {
	action Action
	reply  chan error
}

// Loop owns a Viewer on a single goroutine. Actions and ticks are processed
// one at a time, so viewer state is never shared.
type Loop struct {
	v        *Viewer
	interval time.Duration
	actions  chan request
	done     chan struct{}

	mu   sync.RWMutex
	last Frame
}

// NewLoop wraps v. The loop attaches itself as a surface of v; the caller
// must not use v directly once Run has started.
func NewLoop(v *Viewer, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	l := &Loop{
		v:        v,
		interval: interval,
		actions:  make(chan request),
		done:     make(chan struct{}),
		last:     v.Frame(),
	}
	v.Attach(SurfaceFunc(l.store))
	return l
}

func (l *Loop) store(f Frame) {
	l.mu.Lock()
	l.last = f
	l.mu.Unlock()
}

// Run processes actions and ticks until ctx is done, then stops the
// simulation. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.v.Close()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.actions:
			req.reply <- l.v.Update(req.action)
		case now := <-ticker.C:
			l.v.Tick(now)
		}
	}
}

// Dispatch sends an action to the loop and waits for the update result. It
// is safe to call from any goroutine.
func (l *Loop) Dispatch(ctx context.Context, a Action) error {
	req := request{action: a, reply: make(chan error, 1)}
	select {
	case l.actions <- req:
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest frame. It is safe to call from any goroutine.
func (l *Loop) Snapshot() Frame {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }
