package separation

// Vocal-relevant frequency bands in Hz, half-open [low, high).
var vocalBands = [][2]float64{
	{80, 300},    // fundamental
	{300, 1000},  // first harmonics
	{1000, 3000}, // formants
	{3000, 8000}, // high harmonics
}

const (
	// maskScale multiplies the per-cell energy-prominence ratio before
	// clipping to 1.0.
	maskScale = 0.8

	// maskMedianWindow is the time-axis median filter size that suppresses
	// single-frame spikes and dropouts in each mask row.
	maskMedianWindow = 5

	// maskEpsilon keeps the prominence ratio finite on silent frames.
	maskEpsilon = 1e-8
)

// VocalMask builds a soft time-frequency mask over the magnitude spectrogram
// emphasizing the bands typical of human voice. Each in-band cell gets a
// weight proportional to how prominent its magnitude is against the mean
// magnitude of its frame, scaled by maskScale and clipped to 1.0. Bins
// outside every band stay 0. The result has the same [frame][bin] shape as
// the input and every value lies in [0, 1].
//
// The complement (1 - mask) is the accompaniment mask.
func VocalMask(mag [][]float64, sampleRate, size int) [][]float64 {
	frames := len(mag)
	if frames == 0 {
		return nil
	}
	bins := len(mag[0])

	mask := make([][]float64, frames)
	for t := range mask {
		mask[t] = make([]float64, bins)
	}

	frameMeans := make([]float64, frames)
	for t := 0; t < frames; t++ {
		var sum float64
		for k := 0; k < bins; k++ {
			sum += mag[t][k]
		}
		frameMeans[t] = sum / float64(bins)
	}

	inBand := make([]bool, bins)
	for k := 0; k < bins; k++ {
		freq := BinFrequency(k, sampleRate, size)
		for _, band := range vocalBands {
			if freq >= band[0] && freq < band[1] {
				inBand[k] = true
				break
			}
		}
	}

	for t := 0; t < frames; t++ {
		for k := 0; k < bins; k++ {
			if !inBand[k] {
				continue
			}
			ratio := mag[t][k] / (frameMeans[t] + maskEpsilon)
			weight := ratio * maskScale
			if weight > 1 {
				weight = 1
			}
			mask[t][k] = weight
		}
	}

	// Smooth each in-band row over time.
	series := make([]float64, frames)
	for k := 0; k < bins; k++ {
		if !inBand[k] {
			continue
		}
		for t := 0; t < frames; t++ {
			series[t] = mask[t][k]
		}
		filtered := medianFilter(series, maskMedianWindow)
		for t := 0; t < frames; t++ {
			mask[t][k] = filtered[t]
		}
	}

	return mask
}

// ComplementMask returns 1 - mask, elementwise.
func ComplementMask(mask [][]float64) [][]float64 {
	out := make([][]float64, len(mask))
	for t, row := range mask {
		out[t] = make([]float64, len(row))
		for k, v := range row {
			out[t][k] = 1 - v
		}
	}
	return out
}
