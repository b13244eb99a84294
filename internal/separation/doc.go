// Package separation isolates vocal and instrumental components from a mixed
// audio track using spectral analysis.
//
// The deterministic engine combines two estimates: a harmonic/percussive
// decomposition of the signal (median filtering over the spectrogram), and a
// frequency-band vocal mask built from a local energy-prominence heuristic.
// The two are fused with fixed weights, peak-normalized, and written as mono
// WAV files at the analysis rate. A quality analyzer scores the energy
// balance of the outputs, and a selector prefers a model-based separator
// when one is available, falling back to the engine otherwise.
//
// The masking heuristic assumes vocal content is spectrally prominent
// relative to the frame-wide average. That assumption fails for dense, loud
// mixes; this is a known limitation of the approach, not a defect.
package separation
