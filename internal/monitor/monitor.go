// SPDX-License-Identifier: MIT
/*
Package monitor connects sample blocks to event sinks.

A Monitor turns each block into one level.Event: the aggregate level is
estimated and classified, per-channel gains are added when enabled, and
the event is stamped with a wall-clock time and a sequence number before
being handed to the sink.

Thread Safety:
- HandleBlock may be called from the audio callback
- The sequence counter is atomic; everything else is read-only after New
- Sinks that block should be wrapped in a Dispatcher
*/
package monitor

import (
	"sync/atomic"
	"time"

	"mixmon/internal/level"
)

// Monitor estimates and classifies blocks, then emits events to a Sink.
type Monitor struct {
	estimator  level.Estimator
	classifier level.Classifier
	perChannel bool
	sink       Sink
	now        func() time.Time

	sequence atomic.Uint64
	blocks   atomic.Uint64
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithPerChannel enables per-channel gains and statuses on every event.
func WithPerChannel(enabled bool) Option {
	return func(m *Monitor) { m.perChannel = enabled }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// New creates a Monitor for the given thresholds. A nil sink discards events.
func New(th level.Thresholds, sink Sink, opts ...Option) *Monitor {
	if sink == nil {
		sink = Discard
	}
	m := &Monitor{
		estimator:  level.NewEstimator(th),
		classifier: level.NewClassifier(th),
		sink:       sink,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Thresholds returns the thresholds the monitor classifies against.
func (m *Monitor) Thresholds() level.Thresholds {
	return m.classifier.Thresholds()
}

// Process runs one block through the pipeline and returns the event without
// emitting it. Sequence numbers start at 1.
func (m *Monitor) Process(block level.SampleBlock) level.Event {
	m.blocks.Add(1)

	ev := m.classifier.Classify(m.estimator.Level(block))
	if m.perChannel {
		// Events outlive the block, so gains get their own backing array.
		ev.Gains = m.estimator.ChannelGains(block)
		ev.Channels = m.classifier.ClassifyGains(ev.Gains)
	}
	ev.Time = m.now()
	ev.Sequence = m.sequence.Add(1)
	return ev
}

// HandleBlock processes block and hands the resulting event to the sink.
func (m *Monitor) HandleBlock(block level.SampleBlock) {
	m.sink.Handle(m.Process(block))
}

// Blocks returns the number of blocks processed so far.
func (m *Monitor) Blocks() uint64 {
	return m.blocks.Load()
}
