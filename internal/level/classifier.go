// SPDX-License-Identifier: MIT
package level

import (
	"fmt"
	"math"
	"time"
)

// Event is the classification of one block. The Classifier fills Level,
// Severity, Message, Noise and Warning; the monitor adds the rest.
type Event struct {
	Level    float64    `json:"level"`              // Calibrated level in dBu.
	Severity Severity   `json:"severity"`           // Primary status.
	Message  string     `json:"message"`            // Human-readable primary status.
	Noise    bool       `json:"noise"`              // Level is below the noise floor.
	Warning  string     `json:"warning,omitempty"`  // Noise warning, empty when Noise is false.
	Gains    []float64  `json:"gains,omitempty"`    // Per-channel RMS levels in dBu.
	Channels []Severity `json:"channels,omitempty"` // Per-channel status, parallel to Gains.
	Time     time.Time  `json:"time"`
	Sequence uint64     `json:"sequence"`
}

// Classifier maps calibrated levels to severities using fixed thresholds.
type Classifier struct {
	th Thresholds
}

// NewClassifier returns a Classifier bound to th.
func NewClassifier(th Thresholds) Classifier {
	return Classifier{th: th}
}

// Thresholds returns the boundaries the Classifier was built with.
func (c Classifier) Thresholds() Thresholds {
	return c.th
}

// Classify produces the event for a single calibrated level.
//
// Bands are tested in order: nominal, slightly hot, too hot. Only when none
// of them match does a level under the noise floor become NoiseDetected.
// The noise comparison is also made on every call and reported through
// Noise and Warning whatever the primary band.
func (c Classifier) Classify(lvl float64) Event {
	ev := Event{
		Level:    lvl,
		Severity: c.band(lvl),
	}

	ev.Noise = lvl < c.th.NoiseFloor
	if ev.Severity == Unclassified && ev.Noise {
		ev.Severity = NoiseDetected
	}
	if ev.Noise {
		ev.Warning = fmt.Sprintf("noise or hum detected (%.2f dBu below %.2f dBu floor)",
			c.th.NoiseFloor-lvl, c.th.NoiseFloor)
	}

	ev.Message = c.message(ev.Severity, lvl)
	return ev
}

// ClassifyChannel returns the status of a single channel gain. A channel
// has no separate warning slot, so a gain under the noise floor that is in
// no primary band reports BelowNoiseFloor.
func (c Classifier) ClassifyChannel(gain float64) Severity {
	if s := c.band(gain); s != Unclassified {
		return s
	}
	if gain < c.th.NoiseFloor {
		return BelowNoiseFloor
	}
	return Unclassified
}

// ClassifyGains returns the status of every channel in gains.
func (c Classifier) ClassifyGains(gains []float64) []Severity {
	if gains == nil {
		return nil
	}
	out := make([]Severity, len(gains))
	for i, g := range gains {
		out[i] = c.ClassifyChannel(g)
	}
	return out
}

// Classify is the functional form of Classifier.Classify.
func Classify(lvl float64, th Thresholds) Event {
	return NewClassifier(th).Classify(lvl)
}

// band evaluates the primary bands, first match wins.
func (c Classifier) band(lvl float64) Severity {
	tol := c.th.NominalTolerance
	switch {
	case lvl == 0 || math.Abs(lvl) <= tol:
		return Nominal
	case lvl > tol && lvl <= c.th.MaxAllowedLevel:
		return SlightlyHot
	case lvl > c.th.MaxAllowedLevel:
		return TooHot
	default:
		return Unclassified
	}
}

func (c Classifier) message(s Severity, lvl float64) string {
	switch s {
	case Nominal:
		return fmt.Sprintf("%.2f dBu: level nominal", lvl)
	case SlightlyHot:
		return fmt.Sprintf("%.2f dBu: slightly hot (max %.2f dBu)", lvl, c.th.MaxAllowedLevel)
	case TooHot:
		return fmt.Sprintf("%.2f dBu: too hot, clipping likely (max %.2f dBu)", lvl, c.th.MaxAllowedLevel)
	case NoiseDetected:
		return fmt.Sprintf("%.2f dBu: noise floor", lvl)
	default:
		return fmt.Sprintf("%.2f dBu", lvl)
	}
}
