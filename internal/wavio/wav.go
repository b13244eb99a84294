package wavio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Errors returned while decoding WAV data.
var (
	ErrNotWAV       = errors.New("not a RIFF/WAVE file")
	ErrUnsupported  = errors.New("unsupported WAV encoding")
	ErrEmptySignal  = errors.New("empty audio signal")
	ErrMissingChunk = errors.New("missing data chunk")
)

// Signal holds decoded PCM audio. Channels are stored separately; every
// channel shares the same length and sample rate.
type Signal struct {
	Channels [][]float64
	Rate     int
}

// Len returns the per-channel sample count.
func (s *Signal) Len() int {
	if s == nil || len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s == nil || s.Rate <= 0 {
		return 0
	}
	return float64(s.Len()) / float64(s.Rate)
}

// Mono returns a single channel, averaging when the signal is stereo.
func (s *Signal) Mono() []float64 {
	if s == nil || len(s.Channels) == 0 {
		return nil
	}
	if len(s.Channels) == 1 {
		return s.Channels[0]
	}
	n := s.Len()
	out := make([]float64, n)
	scale := 1.0 / float64(len(s.Channels))
	for i := 0; i < n; i++ {
		var sum float64
		for _, ch := range s.Channels {
			sum += ch[i]
		}
		out[i] = sum * scale
	}
	return out
}

const (
	formatPCM       = 1
	formatIEEEFloat = 3
	// WAVE_FORMAT_EXTENSIBLE wraps the real format in a sub-chunk; the first
	// two bytes of the GUID carry the same format tag.
	formatExtensible = 0xFFFE
)

// ReadFile decodes a WAV file from disk.
func ReadFile(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()
	sig, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return sig, nil
}

// Decode parses RIFF/WAVE data carrying 16-bit integer or 32-bit float PCM.
func Decode(r io.Reader) (*Signal, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, ErrNotWAV
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		format     uint16
		channels   int
		rate       int
		bitsPerSmp int
		haveFmt    bool
	)

	for {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrMissingChunk
			}
			return nil, err
		}
		chunkID := string(header[0:4])
		chunkLen := binary.LittleEndian.Uint32(header[4:8])

		switch chunkID {
		case "fmt ":
			body := make([]byte, chunkLen)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return nil, ErrUnsupported
			}
			format = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			rate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSmp = int(binary.LittleEndian.Uint16(body[14:16]))
			if format == formatExtensible && len(body) >= 26 {
				format = binary.LittleEndian.Uint16(body[24:26])
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, ErrUnsupported
			}
			if channels < 1 || channels > 2 || rate <= 0 {
				return nil, fmt.Errorf("%w: channels=%d rate=%d", ErrUnsupported, channels, rate)
			}
			body := make([]byte, chunkLen)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("read data chunk: %w", err)
			}
			return decodeSamples(body, format, channels, rate, bitsPerSmp)
		default:
			// Skip chunks like LIST or fact. Chunk bodies are word-aligned.
			skip := int64(chunkLen)
			if skip%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, ErrMissingChunk
			}
		}
	}
}

func decodeSamples(body []byte, format uint16, channels, rate, bits int) (*Signal, error) {
	var bytesPer int
	switch {
	case format == formatPCM && bits == 16:
		bytesPer = 2
	case format == formatIEEEFloat && bits == 32:
		bytesPer = 4
	default:
		return nil, fmt.Errorf("%w: format=%d bits=%d", ErrUnsupported, format, bits)
	}

	frames := len(body) / (bytesPer * channels)
	if frames == 0 {
		return nil, ErrEmptySignal
	}

	sig := &Signal{Rate: rate, Channels: make([][]float64, channels)}
	for ch := range sig.Channels {
		sig.Channels[ch] = make([]float64, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * bytesPer
			switch bytesPer {
			case 2:
				v := int16(binary.LittleEndian.Uint16(body[off : off+2]))
				sig.Channels[ch][i] = float64(v) / 32768.0
			case 4:
				bitsVal := binary.LittleEndian.Uint32(body[off : off+4])
				sig.Channels[ch][i] = float64(math.Float32frombits(bitsVal))
			}
		}
	}
	return sig, nil
}

// WriteFileMono writes mono samples as a 16-bit PCM WAV file. Samples are
// clamped to [-1, 1] before quantization.
func WriteFileMono(path string, samples []float64, rate int) error {
	if len(samples) == 0 {
		return ErrEmptySignal
	}
	if rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", rate)
	}

	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(rate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(s * 32767))
		binary.LittleEndian.PutUint16(buf[44+i*2:46+i*2], uint16(v))
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

// LoadMono reads a WAV file, downmixes to mono, and resamples to targetRate
// when the file's rate differs. This mirrors the analysis-side loading
// contract used throughout the separation engine.
func LoadMono(path string, targetRate int) ([]float64, error) {
	sig, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	mono := sig.Mono()
	if sig.Rate != targetRate {
		mono = Resample(mono, sig.Rate, targetRate)
	}
	if len(mono) == 0 {
		return nil, ErrEmptySignal
	}
	return mono, nil
}
