// SPDX-License-Identifier: MIT
/*
Package level implements the per-block loudness pipeline:
- Level estimation from interleaved float samples (dBFS, then dBu)
- Stateless classification of a level against fixed thresholds

Nothing in this package holds state between blocks. Estimator and
Classifier are plain values built once from Thresholds and are safe to
share between goroutines.
*/
package level

// SampleBlock is one window of interleaved audio, frames × channels.
// The slice is owned by the caller for the duration of a single call and is
// never retained.
type SampleBlock struct {
	Samples  []float64 // Interleaved samples, normalised to [-1.0, 1.0].
	Channels int       // Samples per frame.
}

// NewSampleBlock wraps interleaved samples without copying.
func NewSampleBlock(samples []float64, channels int) SampleBlock {
	return SampleBlock{Samples: samples, Channels: channels}
}

// Frames returns the number of complete frames in the block.
func (b SampleBlock) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Len returns the total number of samples across all channels.
func (b SampleBlock) Len() int {
	return len(b.Samples)
}
