// SPDX-License-Identifier: MIT
package monitor

import (
	"sync"
	"testing"

	"mixmon/internal/level"
)

// recordingSink keeps every event it receives. Gains and channel slices are
// copied so later mutation by the producer does not leak into recorded
// events.
type recordingSink struct {
	mu     sync.Mutex
	events []level.Event
}

func (r *recordingSink) Handle(ev level.Event) {
	if ev.Gains != nil {
		ev.Gains = append([]float64(nil), ev.Gains...)
	}
	if ev.Channels != nil {
		ev.Channels = append([]level.Severity(nil), ev.Channels...)
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a snapshot of the recorded events.
func (r *recordingSink) Events() []level.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]level.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingSink) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestRecordingSinkCopies(t *testing.T) {
	tests := []struct {
		name  string
		gains []float64
	}{
		{"No Gains", nil},
		{"Mono", []float64{-12}},
		{"Stereo", []float64{-12, -6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			sink.Handle(level.Event{Level: -3, Gains: tt.gains})

			if sink.Len() != 1 {
				t.Fatalf("Len() = %d, want 1", sink.Len())
			}
			if got := sink.Events()[0]; len(got.Gains) != len(tt.gains) {
				t.Fatalf("recorded gains length = %d, want %d", len(got.Gains), len(tt.gains))
			}

			if len(tt.gains) > 0 {
				tt.gains[0] = 999.999
				if sink.Events()[0].Gains[0] == 999.999 {
					t.Error("Handle() stored a reference instead of a copy")
				}
			}
		})
	}
}

func TestSinkFuncAndDiscard(t *testing.T) {
	var got []float64
	f := SinkFunc(func(ev level.Event) { got = append(got, ev.Level) })

	MultiSink{f, nil, Discard}.Handle(level.Event{Level: 1.5})
	if len(got) != 1 || got[0] != 1.5 {
		t.Errorf("SinkFunc received %v, want [1.5]", got)
	}
}
