// SPDX-License-Identifier: MIT
package level

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Estimator converts sample blocks into calibrated levels. It carries only
// the calibration offset and is safe for concurrent use.
type Estimator struct {
	offset float64
}

// NewEstimator builds an Estimator using the calibration offset from th.
func NewEstimator(th Thresholds) Estimator {
	return Estimator{offset: th.CalibrationOffset}
}

// Level returns the aggregate calibrated level of the block in dBu.
//
// The magnitude is the Euclidean norm of every sample in the block taken as
// one flat vector. It is not divided by the sample count, so the result
// grows with sqrt(frames*channels): doubling the block size adds ~3.01 dB.
// Use ChannelGains for a size-independent RMS reading.
func (e Estimator) Level(block SampleBlock) float64 {
	var magnitude float64
	if len(block.Samples) > 0 {
		magnitude = floats.Norm(block.Samples, 2)
	}
	return toDB(magnitude) + e.offset
}

// ChannelGains returns one calibrated RMS level per channel in dBu. The
// channels are never mixed. A block with no frames reports every channel at
// the silence floor; a block with no channels returns nil.
func (e Estimator) ChannelGains(block SampleBlock) []float64 {
	if block.Channels <= 0 {
		return nil
	}
	gains := make([]float64, block.Channels)
	e.ChannelGainsInto(gains, block)
	return gains
}

// ChannelGainsInto writes per-channel levels into dst, which must hold at
// least block.Channels values. It allocates nothing and returns dst[:channels].
func (e Estimator) ChannelGainsInto(dst []float64, block SampleBlock) []float64 {
	channels := block.Channels
	if channels <= 0 {
		return dst[:0]
	}
	dst = dst[:channels]
	for ch := range dst {
		dst[ch] = 0
	}

	frames := block.Frames()
	for i := 0; i < frames*channels; i++ {
		s := block.Samples[i]
		dst[i%channels] += s * s
	}

	for ch, sumSquares := range dst {
		var rms float64
		if frames > 0 {
			rms = math.Sqrt(sumSquares / float64(frames))
		}
		dst[ch] = toDB(rms) + e.offset
	}
	return dst
}

// EstimateLevel is the functional form of Estimator.Level.
func EstimateLevel(block SampleBlock, th Thresholds) float64 {
	return NewEstimator(th).Level(block)
}

// EstimateChannelGains is the functional form of Estimator.ChannelGains.
func EstimateChannelGains(block SampleBlock, th Thresholds) []float64 {
	return NewEstimator(th).ChannelGains(block)
}

// toDB converts a linear magnitude to dBFS with the Epsilon floor applied.
func toDB(magnitude float64) float64 {
	return 20 * math.Log10(magnitude+Epsilon)
}
