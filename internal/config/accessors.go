// SPDX-License-Identifier: MIT
package config

import (
	"path/filepath"
	"time"

	"mixmon/internal/level"
)

// Thresholds returns the immutable threshold set for the level pipeline.
func (c *Config) Thresholds() level.Thresholds {
	return level.Thresholds{
		CalibrationOffset: c.Levels.CalibrationOffset,
		MaxAllowedLevel:   c.Levels.MaxAllowedLevel,
		NoiseFloor:        c.Levels.NoiseFloor,
		NominalTolerance:  c.Levels.NominalTolerance,
	}
}

// BlockDuration returns the wall-clock span of one block.
func (c *Config) BlockDuration() time.Duration {
	if c.Audio.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Audio.FramesPerBuffer) / c.Audio.SampleRate * float64(time.Second))
}

// RecordingPath returns the WAV path for a recording started at now. An
// explicit OutputFile wins; otherwise a timestamped name is generated in
// OutputDir.
func (c *Config) RecordingPath(now time.Time) string {
	if c.Recording.OutputFile != "" {
		return c.Recording.OutputFile
	}
	name := "recording-" + now.UTC().Format("02-01-2006-150405") + "." + DefaultFormat
	return filepath.Join(c.Recording.OutputDir, name)
}
