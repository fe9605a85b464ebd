// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"mixmon/internal/level"
)

func TestPacketRoundTrip(t *testing.T) {
	ev := level.Classify(-65, level.DefaultThresholds())
	ev.Time = time.Unix(1760000000, 123)
	ev.Gains = []float64{-65.5, -12.25}
	ev.Channels = []level.Severity{level.BelowNoiseFloor, level.Unclassified}

	var buf bytes.Buffer
	if err := EncodePacket(&buf, 7, ev); err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
	if want := HeaderSize + 2*5; buf.Len() != want {
		t.Fatalf("packet size = %d, want %d", buf.Len(), want)
	}

	p, err := DecodePacket(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if p.Sequence != 7 || p.Timestamp != ev.Time.UnixNano() {
		t.Errorf("header = seq %d ts %d", p.Sequence, p.Timestamp)
	}
	if p.Level != float32(ev.Level) || p.Severity != level.NoiseDetected || !p.Noise() {
		t.Errorf("level fields = %v %s noise=%v", p.Level, p.Severity, p.Noise())
	}
	if len(p.Gains) != 2 || p.Gains[0] != -65.5 || p.Gains[1] != -12.25 {
		t.Errorf("Gains = %v", p.Gains)
	}
	if len(p.Channels) != 2 || p.Channels[0] != level.BelowNoiseFloor || p.Channels[1] != level.Unclassified {
		t.Errorf("Channels = %v", p.Channels)
	}
}

func TestPacketHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePacket(&buf, 1, level.Classify(0, level.DefaultThresholds())); err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
	if buf.Len() != HeaderSize {
		t.Errorf("packet size = %d, want %d", buf.Len(), HeaderSize)
	}

	p, err := DecodePacket(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if p.Severity != level.Nominal || p.Noise() || p.Timestamp != 0 || p.Gains != nil {
		t.Errorf("unexpected packet %+v", p)
	}
}

func TestDecodePacketShort(t *testing.T) {
	var buf bytes.Buffer
	ev := level.Event{Gains: []float64{1, 2, 3}}
	if err := EncodePacket(&buf, 1, ev); err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
	data := buf.Bytes()

	for _, n := range []int{0, HeaderSize - 1, len(data) - 1} {
		if _, err := DecodePacket(data[:n]); !errors.Is(err, ErrShortPacket) {
			t.Errorf("DecodePacket(%d bytes) = %v, want ErrShortPacket", n, err)
		}
	}
}

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPacket(t *testing.T, conn *net.UDPConn) Packet {
	t.Helper()
	buf := make([]byte, 2048)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP error: %v", err)
	}
	p, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	return p
}

func TestPublisherSendsLatest(t *testing.T) {
	listener := listenUDP(t)

	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender error: %v", err)
	}
	pub, err := NewUDPPublisher(10*time.Millisecond, sender)
	if err != nil {
		t.Fatalf("NewUDPPublisher error: %v", err)
	}

	th := level.DefaultThresholds()
	// Three events before the first tick coalesce into one packet.
	for _, lvl := range []float64{-20, -10, 8} {
		pub.Handle(level.Classify(lvl, th))
	}
	pub.Start()
	pub.Start() // No-op while running.

	p := readPacket(t, listener)
	if p.Sequence != 1 || p.Severity != level.TooHot || p.Level != 8 {
		t.Errorf("first packet = %+v, want sequence 1 too_hot at 8", p)
	}

	pub.Handle(level.Classify(0, th))
	p = readPacket(t, listener)
	if p.Sequence != 2 || p.Severity != level.Nominal {
		t.Errorf("second packet = %+v, want sequence 2 nominal", p)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("Stop after Close error: %v", err)
	}
	if err := sender.Send([]byte{1}); !errors.Is(err, ErrSenderClosed) {
		t.Errorf("Send after Close = %v, want ErrSenderClosed", err)
	}
}

func TestPublisherIdleSendsNothing(t *testing.T) {
	listener := listenUDP(t)

	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender error: %v", err)
	}
	pub, err := NewUDPPublisher(5*time.Millisecond, sender)
	if err != nil {
		t.Fatalf("NewUDPPublisher error: %v", err)
	}
	pub.Start()
	time.Sleep(30 * time.Millisecond)
	pub.Close()

	listener.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
	if _, _, err := listener.ReadFromUDP(make([]byte, 64)); err == nil {
		t.Error("idle publisher sent a packet")
	}
}

func TestNewUDPPublisherErrors(t *testing.T) {
	if _, err := NewUDPPublisher(time.Second, nil); err == nil {
		t.Error("expected error for nil sender")
	}
	if _, err := NewUDPSender("not an address"); err == nil {
		t.Error("expected error for bad target address")
	}
}
