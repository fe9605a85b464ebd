// SPDX-License-Identifier: MIT
//
// Package transport delivers classification events to the outside world:
// the console, the application log, WebSocket clients and (in the udp
// subpackage) binary UDP packets.
package transport

import (
	"sync/atomic"

	"mixmon/internal/level"
	applog "mixmon/internal/log"
	"mixmon/internal/monitor"
)

// Transport defines a generic interface for sending classification events.
// Implementations should be thread-safe.
type Transport interface {
	Send(ev level.Event) error
	Close() error
}

// sinkAdapter lets a Transport sit behind a monitor.Dispatcher. Send errors
// are counted; the first one is logged and the transport keeps going.
type sinkAdapter struct {
	name     string
	t        Transport
	failures atomic.Uint64
}

// AsSink adapts t to monitor.Sink. name is used in log messages.
func AsSink(name string, t Transport) monitor.Sink {
	return &sinkAdapter{name: name, t: t}
}

func (s *sinkAdapter) Handle(ev level.Event) {
	if err := s.t.Send(ev); err != nil {
		if s.failures.Add(1) == 1 {
			applog.Warnf("%s: Send failed, further errors suppressed: %v", s.name, err)
		}
	}
}
