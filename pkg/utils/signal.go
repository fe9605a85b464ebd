// SPDX-License-Identifier: MIT
//
// Package utils holds test signal generators shared across packages.
package utils

import "math"

// GenerateSineBlock returns frames*channels interleaved samples of a sine at
// frequency Hz with the given peak amplitude on every channel.
func GenerateSineBlock(frames, channels int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		t := float64(i) / sampleRate
		v := amplitude * math.Sin(2*math.Pi*frequency*t)
		for ch := 0; ch < channels; ch++ {
			buffer[i*channels+ch] = v
		}
	}
	return buffer
}

// GenerateComplexBlock returns a mono 440Hz fundamental with two harmonics,
// scaled to peak below 0.9.
func GenerateComplexBlock(frames int, sampleRate float64) []float64 {
	buffer := make([]float64, frames)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = signal * 0.9
	}
	return buffer
}

// ConstantBlock returns frames of interleaved samples where channel ch holds
// values[ch] on every frame.
func ConstantBlock(frames int, values ...float64) []float64 {
	channels := len(values)
	buffer := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		copy(buffer[i*channels:(i+1)*channels], values)
	}
	return buffer
}

// PeakAbs returns the largest absolute sample value in buffer.
func PeakAbs(buffer []float64) float64 {
	var peak float64
	for _, v := range buffer {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
