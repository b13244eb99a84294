package separation

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"
	"sync"
)

// Analysis constants shared by the forward and inverse transforms. The
// frame size and hop length must match on both ends or reconstructed length
// will not line up with the original.
const (
	// AnalysisRate is the fixed mono sample rate all separation math runs at.
	AnalysisRate = 22050

	frameSize = 2048
	hopLength = 512
)

// ErrEmptySignal is returned by transforms given no samples to work on.
var ErrEmptySignal = errors.New("empty signal")

// Spectrogram holds the magnitude/phase decomposition of a windowed Fourier
// transform, indexed [frame][bin]. Bins run 0..frameSize/2 inclusive.
type Spectrogram struct {
	Mag   [][]float64
	Phase [][]float64

	frameSize int
	hop       int
}

// Frames returns the number of time frames.
func (sp *Spectrogram) Frames() int { return len(sp.Mag) }

// Bins returns the number of frequency bins per frame.
func (sp *Spectrogram) Bins() int {
	if len(sp.Mag) == 0 {
		return 0
	}
	return len(sp.Mag[0])
}

// BinFrequency returns the center frequency in Hz of a spectrogram bin.
func BinFrequency(bin, sampleRate, size int) float64 {
	return float64(bin) * float64(sampleRate) / float64(size)
}

// STFT computes a Hann-windowed short-time Fourier transform. Signals
// shorter than one frame are zero-padded to a single frame.
func STFT(signal []float64, size, hop int) (*Spectrogram, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}
	if size <= 0 || hop <= 0 {
		return nil, fmt.Errorf("invalid transform parameters: frame=%d hop=%d", size, hop)
	}
	if bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("frame size %d is not a power of two", size)
	}

	if len(signal) < size {
		padded := make([]float64, size)
		copy(padded, signal)
		signal = padded
	}

	window := hannWindow(size)
	frames := 1 + (len(signal)-size)/hop
	bins := size/2 + 1

	sp := &Spectrogram{
		Mag:       make([][]float64, frames),
		Phase:     make([][]float64, frames),
		frameSize: size,
		hop:       hop,
	}

	buf := make([]complex128, size)
	for t := 0; t < frames; t++ {
		offset := t * hop
		for i := 0; i < size; i++ {
			buf[i] = complex(signal[offset+i]*window[i], 0)
		}
		fft(buf, false)

		sp.Mag[t] = make([]float64, bins)
		sp.Phase[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			sp.Mag[t][k] = cmplx.Abs(buf[k])
			sp.Phase[t][k] = cmplx.Phase(buf[k])
		}
	}
	return sp, nil
}

// ISTFT reconstructs a time-domain signal by overlap-add of Hann-windowed
// inverse transforms. Reconstruction length is hop*(frames-1)+frame samples;
// callers truncate intermediate signals to a shared minimum length.
func ISTFT(sp *Spectrogram) ([]float64, error) {
	if sp == nil || sp.Frames() == 0 {
		return nil, ErrEmptySignal
	}
	size := sp.frameSize
	hop := sp.hop
	bins := sp.Bins()
	if bins != size/2+1 {
		return nil, fmt.Errorf("spectrogram has %d bins, expected %d", bins, size/2+1)
	}

	window := hannWindow(size)
	outLen := hop*(sp.Frames()-1) + size
	out := make([]float64, outLen)
	windowSum := make([]float64, outLen)

	buf := make([]complex128, size)
	for t := 0; t < sp.Frames(); t++ {
		for k := 0; k < bins; k++ {
			re := sp.Mag[t][k] * math.Cos(sp.Phase[t][k])
			im := sp.Mag[t][k] * math.Sin(sp.Phase[t][k])
			buf[k] = complex(re, im)
		}
		// Real input means the upper half of the spectrum mirrors the lower.
		for k := bins; k < size; k++ {
			buf[k] = cmplx.Conj(buf[size-k])
		}
		fft(buf, true)

		offset := t * hop
		for i := 0; i < size; i++ {
			out[offset+i] += real(buf[i]) * window[i]
			windowSum[offset+i] += window[i] * window[i]
		}
	}

	for i := range out {
		if windowSum[i] > 1e-8 {
			out[i] /= windowSum[i]
		}
	}
	return out, nil
}

// fft runs an in-place iterative radix-2 transform. inverse applies the
// conjugate transform and 1/n scaling.
func fft(buf []complex128, inverse bool) {
	n := len(buf)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	shift := bits.UintSize - uint(bits.Len(uint(n-1)))
	for i := 0; i < n; i++ {
		j := int(bits.Reverse(uint(i)) >> shift)
		if j > i {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		angle := 2 * math.Pi / float64(length)
		if !inverse {
			angle = -angle
		}
		wl := cmplx.Rect(1, angle)
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			half := length / 2
			for i := 0; i < half; i++ {
				u := buf[start+i]
				v := buf[start+i+half] * w
				buf[start+i] = u + v
				buf[start+i+half] = u - v
				w *= wl
			}
		}
	}

	if inverse {
		scale := complex(1/float64(n), 0)
		for i := range buf {
			buf[i] *= scale
		}
	}
}

var (
	hannMu    sync.Mutex
	hannCache = map[int][]float64{}
)

func hannWindow(size int) []float64 {
	hannMu.Lock()
	defer hannMu.Unlock()
	if w, ok := hannCache[size]; ok {
		return w
	}
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	hannCache[size] = w
	return w
}
