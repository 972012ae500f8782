// internal/cw/timing.go
package cw

import (
	"errors"
	"math"
	"time"
)

// Morse code timing ratios (ITU standard)
const (
	// DahDitRatio is the ratio of dah duration to dit duration (ITU: 3:1).
	// Press durations strictly above this many units are dashes.
	DahDitRatio = 3
	// InterCharSpaceRatio is the pause in units that ends a letter (ITU: 3:1)
	InterCharSpaceRatio = 3
	// WordSpaceRatio is the pause in units that ends a word (ITU: 7:1)
	WordSpaceRatio = 7

	// MillisecondsPerMinute is used for WPM calculations
	MillisecondsPerMinute = 60000.0
	// DitsPerWord is the standard word "PARIS" = 50 dit units
	DitsPerWord = 50.0

	// DefaultWPM is the speed used when none is configured
	DefaultWPM = 10
	// MaxWPM keeps the rounded unit at one millisecond or more
	MaxWPM = 1200
)

var (
	// ErrInvalidWPM indicates WPM must be positive
	ErrInvalidWPM = errors.New("WPM must be positive")
	// ErrWPMTooHigh indicates the unit would round down to zero
	ErrWPMTooHigh = errors.New("WPM exceeds maximum")
)

// Timing holds the durations derived from a words-per-minute speed.
type Timing struct {
	WPM int
	// Unit is one dit: round(60000 / (WPM * 50)) milliseconds
	Unit time.Duration
	// DashThreshold separates dots from dashes (exclusive on the dash side)
	DashThreshold time.Duration
	// LetterGap is the pause after the last symbol before the pattern is resolved
	LetterGap time.Duration
	// WordGapRemainder is the extra pause after a decoded letter before a space
	// is emitted; LetterGap + WordGapRemainder makes the 7 unit word gap.
	WordGapRemainder time.Duration
}

// NewTiming derives the timing for wpm.
func NewTiming(wpm int) (Timing, error) {
	if wpm <= 0 {
		return Timing{}, ErrInvalidWPM
	}
	if wpm > MaxWPM {
		return Timing{}, ErrWPMTooHigh
	}

	unitMs := math.Round(MillisecondsPerMinute / (float64(wpm) * DitsPerWord))
	unit := time.Duration(unitMs) * time.Millisecond

	return Timing{
		WPM:              wpm,
		Unit:             unit,
		DashThreshold:    unit * DahDitRatio,
		LetterGap:        unit * InterCharSpaceRatio,
		WordGapRemainder: unit * (WordSpaceRatio - InterCharSpaceRatio),
	}, nil
}

// Classify turns a press duration into a symbol.
func (t Timing) Classify(d time.Duration) Symbol {
	if d > t.DashThreshold {
		return Dash
	}
	return Dot
}
