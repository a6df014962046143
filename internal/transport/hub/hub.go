// Package hub fans world states out to any number of observers. Each state
// is encoded once and shared; every observer has its own bounded queue, and
// a slow observer loses its oldest queued states instead of slowing others.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"ereea.space/internal/observerproto"
)

var ErrClosed = errors.New("hub closed")

type Observer struct {
	ID  string
	out chan []byte
}

// Out yields encoded STATE messages. It is closed when the observer leaves
// or the hub stops.
func (o *Observer) Out() <-chan []byte { return o.out }

type Stats struct {
	Observers int    `json:"observers"`
	Joined    uint64 `json:"joined"`
	Left      uint64 `json:"left"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}

type Hub struct {
	log   *log.Logger
	queue int

	join  chan *Observer
	leave chan string
	done  chan struct{}

	nextID atomic.Uint64

	observers atomic.Int64
	joined    atomic.Uint64
	left      atomic.Uint64
	published atomic.Uint64
	dropped   atomic.Uint64

	dropWarn rate.Sometimes
}

// New returns a hub whose observers each buffer up to queue messages.
func New(queue int, logger *log.Logger) *Hub {
	if queue < 1 {
		queue = 1
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		log:      logger,
		queue:    queue,
		join:     make(chan *Observer),
		leave:    make(chan string),
		done:     make(chan struct{}),
		dropWarn: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Join registers a new observer. The latest state, if any, is queued for it
// immediately.
func (h *Hub) Join(ctx context.Context) (*Observer, error) {
	o := &Observer{
		ID:  fmt.Sprintf("O%d", h.nextID.Add(1)),
		out: make(chan []byte, h.queue),
	}
	select {
	case h.join <- o:
		return o, nil
	case <-h.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Leave unregisters an observer and closes its queue. Observers call it
// when their connection fails, which is how dead observers are pruned.
func (h *Hub) Leave(id string) {
	select {
	case h.leave <- id:
	case <-h.done:
	}
}

func (h *Hub) Stats() Stats {
	return Stats{
		Observers: int(h.observers.Load()),
		Joined:    h.joined.Load(),
		Left:      h.left.Load(),
		Published: h.published.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// Run distributes states from in until in is closed or ctx is done. Every
// remaining observer queue is closed on return.
func (h *Hub) Run(ctx context.Context, in <-chan observerproto.StateMsg) error {
	defer close(h.done)

	observers := map[string]*Observer{}
	var latest []byte
	defer func() {
		for id, o := range observers {
			close(o.out)
			delete(observers, id)
		}
		h.observers.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-h.join:
			observers[o.ID] = o
			h.joined.Add(1)
			h.observers.Store(int64(len(observers)))
			if latest != nil {
				o.out <- latest
			}
		case id := <-h.leave:
			o, ok := observers[id]
			if !ok {
				continue
			}
			delete(observers, id)
			close(o.out)
			h.left.Add(1)
			h.observers.Store(int64(len(observers)))
		case st, ok := <-in:
			if !ok {
				return nil
			}
			b, err := json.Marshal(st)
			if err != nil {
				h.log.Printf("encode state %d: %v", st.Iteration, err)
				continue
			}
			latest = b
			h.published.Add(1)
			for _, o := range observers {
				if sendLatest(o.out, b) {
					h.dropped.Add(1)
					h.dropWarn.Do(func() {
						h.log.Printf("observer %s queue full, dropped oldest (total=%d)", o.ID, h.dropped.Load())
					})
				}
			}
		}
	}
}

func sendLatest(ch chan []byte, b []byte) (dropped bool) {
	select {
	case ch <- b:
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
	case ch <- b:
	default:
	}
	return dropped
}
