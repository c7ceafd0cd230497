package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/crtbp/internal/dynamo"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is the one-sided amplitude spectrum of an evenly sampled
// signal. Omega holds angular frequencies, so peaks compare directly with
// the imaginary parts of the linear eigenvalues.
type Spectrum struct {
	Omega     []float64
	Amplitude []float64
}

// PowerSpectrum transforms values sampled every dt after removing their
// mean.
func PowerSpectrum(values []float64, dt float64) (*Spectrum, error) {
	if len(values) < 4 {
		return nil, fmt.Errorf("%w: spectrum needs at least 4 samples, got %d", dynamo.ErrInvalidSamples, len(values))
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("analysis: sample spacing must be positive, got %g", dt)
	}

	mean := stat.Mean(values, nil)
	seq := make([]float64, len(values))
	for i, v := range values {
		seq[i] = v - mean
	}

	fft := fourier.NewFFT(len(seq))
	coeff := fft.Coefficients(nil, seq)

	s := &Spectrum{
		Omega:     make([]float64, len(coeff)),
		Amplitude: make([]float64, len(coeff)),
	}
	scale := 2 / float64(len(seq))
	for i, c := range coeff {
		s.Omega[i] = 2 * math.Pi * fft.Freq(i) / dt
		s.Amplitude[i] = scale * cmplx.Abs(c)
	}
	return s, nil
}

// Dominant returns the angular frequency of the largest non-constant peak.
func (s *Spectrum) Dominant() float64 {
	best, peak := 0.0, -1.0
	for i := 1; i < len(s.Amplitude); i++ {
		if s.Amplitude[i] > peak {
			best, peak = s.Omega[i], s.Amplitude[i]
		}
	}
	return best
}

// TrajectorySpectrum is PowerSpectrum of one state component of an evenly
// sampled trajectory.
func TrajectorySpectrum(tr *dynamo.Trajectory, component int) (*Spectrum, error) {
	if tr == nil || tr.Len() < 4 {
		return nil, fmt.Errorf("%w: spectrum needs at least 4 samples", dynamo.ErrInvalidSamples)
	}
	if component < 0 || component >= len(tr.State(0)) {
		return nil, fmt.Errorf("%w: component %d", dynamo.ErrDimensionMismatch, component)
	}
	dt := (tr.Time(tr.Len()-1) - tr.Time(0)) / float64(tr.Len()-1)
	return PowerSpectrum(tr.Component(component), math.Abs(dt))
}
