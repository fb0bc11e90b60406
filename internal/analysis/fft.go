package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitudes of the first half of the transform.
func PowerSpectrum(data []float64) []float64 {
	coeffs := fft.FFTReal(data)
	ps := make([]float64, len(coeffs)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}

	return ps
}

// Spectrum removes the mean from xs, zero-pads it to a power of two and
// returns its power spectrum with the padded length.
func Spectrum(xs []float64) ([]float64, int) {
	n := 1
	for n < len(xs) {
		n *= 2
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	if len(xs) > 0 {
		mean /= float64(len(xs))
	}

	padded := make([]float64, n)
	for i, x := range xs {
		padded[i] = x - mean
	}
	return PowerSpectrum(padded), n
}

// DominantPeriod estimates the strongest period in a series sampled every
// dt seconds. It returns 0 when the series is too short or flat.
func DominantPeriod(xs []float64, dt float64) float64 {
	if len(xs) < 4 || dt <= 0 {
		return 0
	}
	ps, n := Spectrum(xs)

	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 {
		return 0
	}
	return float64(n) * dt / float64(maxIdx)
}
