// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"mixmon/internal/level"
	applog "mixmon/internal/log"
)

// UDPPublisher keeps the most recent classification event and, on every
// tick, packs it into the binary packet format and sends it with a
// UDPSender. Events arriving faster than the interval are coalesced; a tick
// with no new event sends nothing.
type UDPPublisher struct {
	sender   *UDPSender    // The underlying UDP sender instance.
	interval time.Duration // The interval at which packets are sent.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	latestMu sync.Mutex  // Protects latest and pending.
	latest   level.Event // Most recent event handed to Handle.
	pending  bool        // latest has not been sent yet.

	sequenceNum  uint32        // Monotonically increasing sequence number for packets.
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
	sendErrors   uint64
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// If the provided interval is invalid (<= 0), it defaults to 33ms (~30Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s)", interval)

	return &UDPPublisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Handle records ev as the next event to publish. It implements
// monitor.Sink and never blocks on the network.
func (p *UDPPublisher) Handle(ev level.Event) {
	p.latestMu.Lock()
	p.latest = ev
	p.pending = true
	p.latestMu.Unlock()
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture local variables for the goroutine to avoid data races on p.ticker/p.doneChan
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				// Flush whatever arrived since the last tick.
				p.publish()
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	if p.sendErrors > 0 {
		applog.Warnf("UDPPublisher: %d packets failed to send", p.sendErrors)
	}
	return nil
}

// publish sends the latest event if it has not been sent yet. Only the
// publisher goroutine calls it, so packetBuffer and sequenceNum need no
// locking.
func (p *UDPPublisher) publish() {
	p.latestMu.Lock()
	if !p.pending {
		p.latestMu.Unlock()
		return
	}
	ev := p.latest
	p.pending = false
	p.latestMu.Unlock()

	p.sequenceNum++
	if err := EncodePacket(p.packetBuffer, p.sequenceNum, ev); err != nil {
		applog.Errorf("UDPPublisher: Error packing event %d: %v", ev.Sequence, err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		p.sendErrors++
		return
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
}

// Close implements the io.Closer interface. It stops the publisher and
// closes the sender.
func (p *UDPPublisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

// Ensure UDPPublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*UDPPublisher)(nil)
