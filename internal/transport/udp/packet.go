// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"mixmon/internal/level"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Level             | float32        | 4            | Calibrated level (dBu)  |
| Severity          | uint8          | 1            | level.Severity value    |
| Flags             | uint8          | 1            | Bit 0: noise detected   |
| Channel Count     | uint16         | 2            | Number of channels (N)  |
| Gains             | []float32      | N * 4        | Per-channel levels      |
| Channel Status    | []uint8        | N            | Per-channel severities  |
+-----------------------------------------------------------------------------+

Visual Layout:

|<- 4 ->|<--- 8 --->|<- 4 ->|<1>|<1>|<- 2 ->|<--- N * 4 --->|<- N ->|
+-------+-----------+-------+---+---+-------+---------------+-------+
|  Seq  | Timestamp | Level |Sev|Flg| Count |     Gains     | Status|
+-------+-----------+-------+---+---+-------+---------------+-------+
*/

// HeaderSize is the size of the fixed part of a packet.
const HeaderSize = 4 + 8 + 4 + 1 + 1 + 2

// FlagNoise is set when the level is below the noise floor.
const FlagNoise uint8 = 1 << 0

// ErrShortPacket is returned by DecodePacket for truncated data.
var ErrShortPacket = errors.New("short UDP packet")

// Packet is the decoded form of one datagram.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Level     float32
	Severity  level.Severity
	Flags     uint8
	Gains     []float32
	Channels  []level.Severity
}

// Noise reports whether the noise flag is set.
func (p Packet) Noise() bool {
	return p.Flags&FlagNoise != 0
}

// EncodePacket appends the packet for ev to buf, which is reset first.
func EncodePacket(buf *bytes.Buffer, seq uint32, ev level.Event) error {
	if len(ev.Gains) > math.MaxUint16 {
		return fmt.Errorf("too many channels: %d", len(ev.Gains))
	}

	var flags uint8
	if ev.Noise {
		flags |= FlagNoise
	}
	var timestamp int64
	if !ev.Time.IsZero() {
		timestamp = ev.Time.UnixNano()
	}

	buf.Reset()
	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], seq)
	binary.BigEndian.PutUint64(hdr[4:12], uint64(timestamp))
	binary.BigEndian.PutUint32(hdr[12:16], math.Float32bits(float32(ev.Level)))
	hdr[16] = uint8(ev.Severity)
	hdr[17] = flags
	binary.BigEndian.PutUint16(hdr[18:20], uint16(len(ev.Gains)))
	buf.Write(hdr[:])

	var word [4]byte
	for _, g := range ev.Gains {
		binary.BigEndian.PutUint32(word[:], math.Float32bits(float32(g)))
		buf.Write(word[:])
	}
	for ch := range ev.Gains {
		s := level.Unclassified
		if ch < len(ev.Channels) {
			s = ev.Channels[ch]
		}
		buf.WriteByte(uint8(s))
	}
	return nil
}

// DecodePacket parses a datagram produced by EncodePacket.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(data))
	}

	p := Packet{
		Sequence:  binary.BigEndian.Uint32(data[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(data[4:12])),
		Level:     math.Float32frombits(binary.BigEndian.Uint32(data[12:16])),
		Severity:  level.Severity(data[16]),
		Flags:     data[17],
	}

	n := int(binary.BigEndian.Uint16(data[18:20]))
	if want := HeaderSize + n*5; len(data) < want {
		return Packet{}, fmt.Errorf("%w: %d bytes, want %d", ErrShortPacket, len(data), want)
	}
	if n == 0 {
		return p, nil
	}

	p.Gains = make([]float32, n)
	p.Channels = make([]level.Severity, n)
	off := HeaderSize
	for i := range p.Gains {
		p.Gains[i] = math.Float32frombits(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
	}
	for i := range p.Channels {
		p.Channels[i] = level.Severity(data[off])
		off++
	}
	return p, nil
}
