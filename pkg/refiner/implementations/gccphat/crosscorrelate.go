package gccphat

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// CrossCorrelate calculates the sample shift of 'fcomp' relative to 'fref' using GCC-PHAT.
// The fref and fcomp slices are expected to be the FFTs of the reference and comparison snippets.
// Both must have the same length N.
//
// Bins outside [minFreq, maxFreq] are ignored (0 disables a bound).
//
// Returns (shift, confidence, error). A positive shift means 'comp' leads 'ref':
// comp(t) == ref(t+shift).
func CrossCorrelate(fref, fcomp []complex128, sampleRate float64, minFreq, maxFreq float64) (float64, float64, error) {
	if sampleRate <= 0 {
		return 0, 0, fmt.Errorf("sampleRate must be positive: got %v", sampleRate)
	}
	if len(fref) != len(fcomp) {
		return 0, 0, fmt.Errorf("fref and fcomp must have same length: %d != %d", len(fref), len(fcomp))
	}
	n := len(fref)
	if n < 3 {
		return 0, 0, fmt.Errorf("at least 3 bins are required: got %d", n)
	}

	binMin, binMax := 0, n/2
	if minFreq > 0 {
		binMin = int(minFreq * float64(n) / sampleRate)
	}
	if maxFreq > 0 && maxFreq < sampleRate/2 {
		binMax = int(maxFreq * float64(n) / sampleRate)
	}

	cross := make([]complex128, n)
	maxMag := 0.0
	for i := range cross {
		cross[i] = fcomp[i] * cmplx.Conj(fref[i])
		maxMag = math.Max(maxMag, cmplx.Abs(cross[i]))
	}
	// only the bins above -60dB of the strongest one are whitened
	threshold := maxMag * 0.001

	activeBins := 0
	for i, prod := range cross {
		idx := i
		if i > n/2 {
			idx = n - i
		}
		mag := cmplx.Abs(prod)
		if idx < binMin || idx > binMax || mag <= threshold || mag <= 1e-12 {
			cross[i] = 0
			continue
		}
		cross[i] = prod / complex(mag, 0)
		activeBins++
	}
	if activeBins == 0 {
		return 0, 0, nil
	}

	timeDomain := fft.IFFT(cross)

	peakIdx, peakVal := 0, -1.0
	for i, v := range timeDomain {
		if mag := cmplx.Abs(v); mag > peakVal {
			peakIdx, peakVal = i, mag
		}
	}

	shift := float64(peakIdx)
	if peakIdx > n/2 {
		shift -= float64(n)
	}

	// parabolic interpolation around the peak (circularly)
	y1 := cmplx.Abs(timeDomain[(peakIdx-1+n)%n])
	y3 := cmplx.Abs(timeDomain[(peakIdx+1)%n])
	if denom := y1 - 2*peakVal + y3; math.Abs(denom) > 1e-12 {
		shift += (y1 - y3) / (2 * denom)
	}

	// A perfect match yields peakVal == activeBins/n, since IFFT divides by n.
	confidence := math.Min(peakVal*float64(n)/float64(activeBins), 1)

	// comp(t) == ref(t-shift) here, so comp leads ref by -shift
	return -shift, confidence, nil
}
