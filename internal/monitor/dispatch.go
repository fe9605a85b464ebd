// SPDX-License-Identifier: MIT
package monitor

import (
	"sync"
	"sync/atomic"

	"mixmon/internal/level"
	applog "mixmon/internal/log"
)

// Dispatcher decouples a producer from a slow Sink. Events are queued on a
// bounded channel and delivered by a single goroutine; when the queue is
// full new events are dropped and counted so the producer never blocks.
type Dispatcher struct {
	sink   Sink
	events chan level.Event

	mu        sync.RWMutex // Guards closed against concurrent Handle/Close.
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup

	dropped   atomic.Uint64
	delivered atomic.Uint64
}

// NewDispatcher starts a Dispatcher delivering to sink with room for size
// queued events. Sizes below 1 are raised to 1.
func NewDispatcher(sink Sink, size int) *Dispatcher {
	if size < 1 {
		size = 1
	}
	if sink == nil {
		sink = Discard
	}

	d := &Dispatcher{
		sink:   sink,
		events: make(chan level.Event, size),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.events {
		d.sink.Handle(ev)
		d.delivered.Add(1)
	}
}

// Handle queues ev for delivery. It never blocks: if the queue is full or
// the dispatcher is closed the event is dropped.
func (d *Dispatcher) Handle(ev level.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return
	}

	select {
	case d.events <- ev:
	default:
		d.dropped.Add(1)
	}
}

// Close stops accepting events, delivers everything already queued and
// waits for the delivery goroutine to exit. It is safe to call more than
// once.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.events)
		d.mu.Unlock()

		d.wg.Wait()
		if n := d.dropped.Load(); n > 0 {
			applog.Warnf("Dispatcher: %d events dropped (queue size %d)", n, cap(d.events))
		}
	})
	return nil
}

// Dropped returns the number of events dropped so far.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Delivered returns the number of events handed to the sink so far.
func (d *Dispatcher) Delivered() uint64 {
	return d.delivered.Load()
}

var _ Sink = (*Dispatcher)(nil)
