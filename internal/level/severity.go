// SPDX-License-Identifier: MIT
package level

import (
	"fmt"
	"strings"
)

// Severity is the operator-facing status of a level.
type Severity uint8

const (
	Unclassified Severity = iota
	Nominal
	SlightlyHot
	TooHot
	BelowNoiseFloor
	NoiseDetected
)

// String returns the wire name of the severity.
func (s Severity) String() string {
	switch s {
	case Unclassified:
		return "unclassified"
	case Nominal:
		return "nominal"
	case SlightlyHot:
		return "slightly_hot"
	case TooHot:
		return "too_hot"
	case BelowNoiseFloor:
		return "below_noise_floor"
	case NoiseDetected:
		return "noise_detected"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a wire name (case-insensitive) back to a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(name) {
	case "unclassified":
		return Unclassified, nil
	case "nominal":
		return Nominal, nil
	case "slightly_hot":
		return SlightlyHot, nil
	case "too_hot":
		return TooHot, nil
	case "below_noise_floor":
		return BelowNoiseFloor, nil
	case "noise_detected":
		return NoiseDetected, nil
	default:
		return Unclassified, fmt.Errorf("unknown severity: '%s'", name)
	}
}

// MarshalText implements encoding.TextMarshaler so events serialise with
// readable severities.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Alarming reports whether the severity needs operator attention.
func (s Severity) Alarming() bool {
	return s == TooHot || s == NoiseDetected || s == BelowNoiseFloor
}
