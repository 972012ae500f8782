// internal/dsp/goertzel.go
// Package dsp detects a keyed CW tone in audio and turns it into key
// press and release events.
package dsp

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
)

// GoertzelConfig holds configuration for the Goertzel filter.
type GoertzelConfig struct {
	// TargetFrequency is the frequency to detect in Hz (from config: tone_frequency)
	TargetFrequency float64
	// SampleRate is the audio sample rate in Hz (from config: sample_rate)
	SampleRate float64
	// BlockSize is the number of samples per detection window (from config: block_size)
	BlockSize int
}

// Goertzel measures the energy of a single frequency bin.
type Goertzel struct {
	config GoertzelConfig
	coeff  float64 // 2cos(ω)
	scale  float64 // 2/N, so a full-scale sine reads ~1.0
}

// NewGoertzel validates cfg and precomputes the filter coefficient.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.TargetFrequency <= 0 || cfg.TargetFrequency >= cfg.SampleRate/2 {
		return nil, ErrInvalidFrequency
	}

	omega := 2 * math.Pi * cfg.TargetFrequency / cfg.SampleRate
	return &Goertzel{
		config: cfg,
		coeff:  2 * math.Cos(omega),
		scale:  2 / float64(cfg.BlockSize),
	}, nil
}

// Magnitude returns the normalized magnitude of the target frequency over
// the first BlockSize samples of block. Short blocks are zero padded.
func (g *Goertzel) Magnitude(block []float32) float64 {
	var s1, s2 float64
	n := g.config.BlockSize
	if len(block) < n {
		n = len(block)
	}
	for _, x := range block[:n] {
		s0 := float64(x) + g.coeff*s1 - s2
		s2, s1 = s1, s0
	}

	power := s1*s1 + s2*s2 - g.coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * g.scale
}

// BlockSize returns the configured block size
func (g *Goertzel) BlockSize() int {
	return g.config.BlockSize
}

// SampleRate returns the configured sample rate
func (g *Goertzel) SampleRate() float64 {
	return g.config.SampleRate
}
