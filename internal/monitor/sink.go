// SPDX-License-Identifier: MIT
package monitor

import "mixmon/internal/level"

// Sink receives classification events. Implementations used behind a
// Dispatcher are called from a single goroutine; sinks called directly from
// the audio callback must not block.
type Sink interface {
	Handle(ev level.Event)
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(ev level.Event)

// Handle calls f(ev).
func (f SinkFunc) Handle(ev level.Event) {
	f(ev)
}

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

// Handle forwards ev to each non-nil sink.
func (m MultiSink) Handle(ev level.Event) {
	for _, s := range m {
		if s != nil {
			s.Handle(ev)
		}
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(level.Event) {})

// Ensure the adapters satisfy the interface at compile time.
var (
	_ Sink = SinkFunc(nil)
	_ Sink = MultiSink(nil)
)
