package separation

import (
	"fmt"
	"sort"
)

const (
	// hpssMargin controls separation aggressiveness: larger margins demand
	// stronger dominance before energy is assigned to either component.
	hpssMargin = 3.0

	// hpssKernel is the median filter length applied along each axis of the
	// magnitude spectrogram.
	hpssKernel = 31
)

// HPSS decomposes a signal into harmonic (sustained, tonal) and percussive
// (transient) components. Median filtering along the time axis enhances
// harmonic ridges; filtering along the frequency axis enhances percussive
// spikes. Soft masks built from the two enhanced spectrograms are applied to
// the original magnitude and inverted back to the time domain.
//
// Both outputs have the transform's reconstruction length, which may differ
// from the input by less than one frame.
func HPSS(signal []float64, margin float64) (harmonic, percussive []float64, err error) {
	if len(signal) == 0 {
		return nil, nil, ErrEmptySignal
	}
	if margin < 1 {
		return nil, nil, fmt.Errorf("hpss margin %v must be >= 1", margin)
	}

	sp, err := STFT(signal, frameSize, hopLength)
	if err != nil {
		return nil, nil, err
	}
	frames := sp.Frames()
	bins := sp.Bins()

	// Harmonic enhancement: median across time for each frequency bin.
	harmEnh := make([][]float64, frames)
	for t := range harmEnh {
		harmEnh[t] = make([]float64, bins)
	}
	series := make([]float64, frames)
	for k := 0; k < bins; k++ {
		for t := 0; t < frames; t++ {
			series[t] = sp.Mag[t][k]
		}
		filtered := medianFilter(series, hpssKernel)
		for t := 0; t < frames; t++ {
			harmEnh[t][k] = filtered[t]
		}
	}

	// Percussive enhancement: median across frequency for each frame.
	percEnh := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		percEnh[t] = medianFilter(sp.Mag[t], hpssKernel)
	}

	harmSpec := &Spectrogram{
		Mag:       make([][]float64, frames),
		Phase:     sp.Phase,
		frameSize: sp.frameSize,
		hop:       sp.hop,
	}
	percSpec := &Spectrogram{
		Mag:       make([][]float64, frames),
		Phase:     sp.Phase,
		frameSize: sp.frameSize,
		hop:       sp.hop,
	}
	for t := 0; t < frames; t++ {
		harmSpec.Mag[t] = make([]float64, bins)
		percSpec.Mag[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			hMask := softMask(harmEnh[t][k], percEnh[t][k]*margin)
			pMask := softMask(percEnh[t][k], harmEnh[t][k]*margin)
			harmSpec.Mag[t][k] = sp.Mag[t][k] * hMask
			percSpec.Mag[t][k] = sp.Mag[t][k] * pMask
		}
	}

	harmonic, err = ISTFT(harmSpec)
	if err != nil {
		return nil, nil, err
	}
	percussive, err = ISTFT(percSpec)
	if err != nil {
		return nil, nil, err
	}
	return harmonic, percussive, nil
}

// softMask computes value² / (value² + ref²), the fraction of energy
// attributed to value against the competing reference.
func softMask(value, ref float64) float64 {
	vp := value * value
	rp := ref * ref
	denom := vp + rp
	if denom <= 0 {
		return 0.5
	}
	return vp / denom
}

// medianFilter applies a sliding median of the given window size with
// reflected edges. The window is forced odd.
func medianFilter(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	if window%2 == 0 {
		window++
	}
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	half := window / 2
	buf := make([]float64, 0, window)
	for i := 0; i < n; i++ {
		buf = buf[:0]
		for j := i - half; j <= i+half; j++ {
			buf = append(buf, values[reflectIndex(j, n)])
		}
		sort.Float64s(buf)
		out[i] = buf[len(buf)/2]
	}
	return out
}

// reflectIndex mirrors out-of-range indices back into [0, n).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}
