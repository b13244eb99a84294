// Package wavio reads and writes the 16-bit PCM WAV files exchanged between
// pipeline stages, with mono downmix and linear resampling helpers for the
// fixed analysis rate the separation engine operates at.
package wavio
