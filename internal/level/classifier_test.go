// SPDX-License-Identifier: MIT
package level_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"mixmon/internal/level"
)

func testThresholds(maxAllowed, noiseFloor float64) level.Thresholds {
	th := level.DefaultThresholds()
	th.MaxAllowedLevel = maxAllowed
	th.NoiseFloor = noiseFloor
	return th
}

func TestClassify(t *testing.T) {
	th := testThresholds(4, -60)

	tests := []struct {
		desc     string
		level    float64
		severity level.Severity
		noise    bool
	}{
		{"Exact zero is nominal", 0, level.Nominal, false},
		{"Negative zero is nominal", math.Copysign(0, -1), level.Nominal, false},
		{"Inside slightly hot band", 2, level.SlightlyHot, false},
		{"Smallest positive level", math.SmallestNonzeroFloat64, level.SlightlyHot, false},
		{"Upper bound inclusive", 4, level.SlightlyHot, false},
		{"Just above upper bound", 4.0001, level.TooHot, false},
		{"Far above upper bound", 24, level.TooHot, false},
		{"Just below zero", -0.0001, level.Unclassified, false},
		{"Typical programme level", -18, level.Unclassified, false},
		{"At noise floor", -60, level.Unclassified, false},
		{"Below noise floor", -65, level.NoiseDetected, true},
		{"Silence floor", th.SilenceLevel(), level.NoiseDetected, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ev := level.Classify(tt.level, th)

			if ev.Severity != tt.severity {
				t.Errorf("Classify(%v).Severity = %s, want %s", tt.level, ev.Severity, tt.severity)
			}
			if ev.Noise != tt.noise {
				t.Errorf("Classify(%v).Noise = %v, want %v", tt.level, ev.Noise, tt.noise)
			}
			if ev.Noise != (ev.Warning != "") {
				t.Errorf("Classify(%v).Warning = %q inconsistent with Noise=%v", tt.level, ev.Warning, ev.Noise)
			}
			if ev.Level != tt.level {
				t.Errorf("Classify(%v).Level = %v", tt.level, ev.Level)
			}
			if ev.Message == "" {
				t.Errorf("Classify(%v).Message is empty", tt.level)
			}
		})
	}
}

// The noise comparison is made on every call, so it shows up alongside a
// primary band when the floor is configured above that band.
func TestClassifyNoiseIsIndependentOfPrimaryBand(t *testing.T) {
	th := testThresholds(4, 10)

	tests := []struct {
		desc     string
		level    float64
		severity level.Severity
	}{
		{"Nominal with noise", 0, level.Nominal},
		{"Slightly hot with noise", 2, level.SlightlyHot},
		{"Too hot with noise", 6, level.TooHot},
		{"Unmatched becomes noise", -65, level.NoiseDetected},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ev := level.Classify(tt.level, th)
			if ev.Severity != tt.severity {
				t.Errorf("Severity = %s, want %s", ev.Severity, tt.severity)
			}
			if !ev.Noise || !strings.Contains(ev.Warning, "noise") {
				t.Errorf("expected noise warning, got Noise=%v Warning=%q", ev.Noise, ev.Warning)
			}
		})
	}
}

func TestClassifyNominalTolerance(t *testing.T) {
	th := testThresholds(4, -60)
	th.NominalTolerance = 0.5

	tests := []struct {
		level    float64
		severity level.Severity
	}{
		{0, level.Nominal},
		{0.3, level.Nominal},
		{-0.3, level.Nominal},
		{0.5, level.Nominal},
		{-0.5, level.Nominal},
		{0.6, level.SlightlyHot},
		{-0.6, level.Unclassified},
		{4, level.SlightlyHot},
		{4.1, level.TooHot},
	}

	c := level.NewClassifier(th)
	for _, tt := range tests {
		if got := c.Classify(tt.level).Severity; got != tt.severity {
			t.Errorf("Classify(%v) with tolerance 0.5 = %s, want %s", tt.level, got, tt.severity)
		}
	}
}

func TestClassifyChannel(t *testing.T) {
	c := level.NewClassifier(testThresholds(4, -60))

	tests := []struct {
		gain     float64
		severity level.Severity
	}{
		{0, level.Nominal},
		{3, level.SlightlyHot},
		{9, level.TooHot},
		{-20, level.Unclassified},
		{-60, level.Unclassified},
		{-70, level.BelowNoiseFloor},
	}

	for _, tt := range tests {
		if got := c.ClassifyChannel(tt.gain); got != tt.severity {
			t.Errorf("ClassifyChannel(%v) = %s, want %s", tt.gain, got, tt.severity)
		}
	}

	got := c.ClassifyGains([]float64{-70, 3})
	want := []level.Severity{level.BelowNoiseFloor, level.SlightlyHot}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ClassifyGains() = %v, want %v", got, want)
	}
	if c.ClassifyGains(nil) != nil {
		t.Error("ClassifyGains(nil) should be nil")
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := level.NewClassifier(level.DefaultThresholds())

	for _, lvl := range []float64{-218, -65, -12.5, 0, 3.9, 17} {
		first := c.Classify(lvl)
		for range 5 {
			got := c.Classify(lvl)
			if got.Severity != first.Severity || got.Message != first.Message ||
				got.Warning != first.Warning || math.Float64bits(got.Level) != math.Float64bits(first.Level) {
				t.Fatalf("Classify(%v) not idempotent: %+v vs %+v", lvl, got, first)
			}
		}
	}
}

func TestClassifierThresholds(t *testing.T) {
	th := testThresholds(6, -50)
	if got := level.NewClassifier(th).Thresholds(); got != th {
		t.Errorf("Thresholds() = %+v, want %+v", got, th)
	}
}

func TestSeverityText(t *testing.T) {
	all := []level.Severity{
		level.Unclassified, level.Nominal, level.SlightlyHot,
		level.TooHot, level.BelowNoiseFloor, level.NoiseDetected,
	}

	for _, s := range all {
		t.Run(s.String(), func(t *testing.T) {
			parsed, err := level.ParseSeverity(strings.ToUpper(s.String()))
			if err != nil {
				t.Fatalf("ParseSeverity(%q) error: %v", s.String(), err)
			}
			if parsed != s {
				t.Errorf("ParseSeverity(%q) = %s, want %s", s.String(), parsed, s)
			}
		})
	}

	if _, err := level.ParseSeverity("lukewarm"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if got := level.Severity(200).String(); got != "unknown" {
		t.Errorf("String() of out-of-range severity = %q, want unknown", got)
	}
}

func TestEventJSON(t *testing.T) {
	ev := level.Classify(5, testThresholds(4, -60))
	ev.Channels = []level.Severity{level.TooHot, level.BelowNoiseFloor}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}

	for _, want := range []string{`"severity":"too_hot"`, `"channels":["too_hot","below_noise_floor"]`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s missing %s", data, want)
		}
	}
	if strings.Contains(string(data), `"warning"`) {
		t.Errorf("JSON %s should omit empty warning", data)
	}
}

func TestSeverityAlarming(t *testing.T) {
	tests := []struct {
		severity level.Severity
		alarming bool
	}{
		{level.Nominal, false},
		{level.SlightlyHot, false},
		{level.Unclassified, false},
		{level.TooHot, true},
		{level.NoiseDetected, true},
		{level.BelowNoiseFloor, true},
	}

	for _, tt := range tests {
		if got := tt.severity.Alarming(); got != tt.alarming {
			t.Errorf("%s.Alarming() = %v, want %v", tt.severity, got, tt.alarming)
		}
	}
}

func BenchmarkClassify(b *testing.B) {
	c := level.NewClassifier(level.DefaultThresholds())
	levels := []float64{-218, -65, -12.5, 0, 3.9, 17}

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		for _, lvl := range levels {
			_ = c.Classify(lvl)
		}
	}
}
