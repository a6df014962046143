package world

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// query runs fn on the loop goroutine between ticks.
type query struct {
	fn   func()
	done chan struct{}
}

// Run drives the world until the mission terminates, Stop is called or ctx
// is cancelled. A panic inside a tick stops the loop with ErrTickFailed.
func (w *World) Run(ctx context.Context) error {
	defer close(w.exited)

	ticker := time.NewTicker(w.tune.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case q := <-w.queries:
			q.fn()
			close(q.done)
		case <-ticker.C:
			if err := w.safeStep(); err != nil {
				w.log.Printf("tick %d: %v", w.tick.Load(), err)
				return err
			}
			if w.mission == Terminated {
				return nil
			}
		}
	}
}

// Stop asks Run to return after the current tick. Safe to call repeatedly.
func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// StepOnce advances the world by a single tick using the same ordering
// semantics as Run. It must not be called while Run is active.
func (w *World) StepOnce() (tick uint64, digest string) {
	w.step()
	tick = w.tick.Load()
	return tick, w.stateDigest()
}

func (w *World) safeStep() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrTickFailed, p, debug.Stack())
		}
	}()
	w.step()
	return nil
}

// do runs fn on the loop goroutine and waits for it.
func (w *World) do(ctx context.Context, fn func()) error {
	q := query{fn: fn, done: make(chan struct{})}
	select {
	case w.queries <- q:
	case <-w.exited:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sendLatest delivers v, evicting the oldest queued value when ch is full.
// It reports whether something was evicted.
func sendLatest[T any](ch chan T, v T) (dropped bool) {
	select {
	case ch <- v:
		return false
	default:
	}
	// Drop one.
	select {
	case <-ch:
		dropped = true
	default:
	}
	select {
	case ch <- v:
	default:
	}
	return dropped
}
