// SPDX-License-Identifier: MIT
package level

// Epsilon is added to every magnitude before the logarithm so silence maps
// to a finite floor of 20*log10(Epsilon) = -200 dBFS.
const Epsilon = 1e-10

// Default threshold values, in dBu unless noted.
const (
	DefaultCalibrationOffset = -18.0 // dB added to dBFS to obtain dBu
	DefaultMaxAllowedLevel   = 4.0
	DefaultNoiseFloor        = -60.0
	DefaultNominalTolerance  = 0.0 // 0 keeps the exact-zero nominal boundary
)

// Thresholds is the immutable boundary set shared by the Estimator and the
// Classifier. It is copied by value; nothing mutates it after construction.
type Thresholds struct {
	CalibrationOffset float64 // dBu = dBFS + CalibrationOffset.
	MaxAllowedLevel   float64 // Upper bound (inclusive) of the slightly hot band.
	NoiseFloor        float64 // Levels strictly below this raise a noise warning.

	// NominalTolerance widens the nominal band to |level| <= NominalTolerance.
	// Zero reproduces the exact-match boundary, which continuous input almost
	// never hits.
	NominalTolerance float64
}

// DefaultThresholds returns the factory calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CalibrationOffset: DefaultCalibrationOffset,
		MaxAllowedLevel:   DefaultMaxAllowedLevel,
		NoiseFloor:        DefaultNoiseFloor,
		NominalTolerance:  DefaultNominalTolerance,
	}
}

// SilenceLevel is the calibrated level reported for an all-zero block.
func (t Thresholds) SilenceLevel() float64 {
	return toDB(0) + t.CalibrationOffset
}
