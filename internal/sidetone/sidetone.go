// internal/sidetone/sidetone.go
// Package sidetone sounds a local tone while the key is held.
package sidetone

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// DefaultSampleRate is the playback rate used when Config leaves it unset.
const DefaultSampleRate = beep.SampleRate(48000)

// ErrAlreadyOpen is returned by Open on a tone that is already playing.
var ErrAlreadyOpen = errors.New("sidetone already open")

// Config holds sidetone configuration
type Config struct {
	Frequency  float64 // Hz
	Volume     float64 // log2 gain, 0 is unity
	SampleRate beep.SampleRate
}

// speakerLocker guards streamer state shared with the speaker goroutine.
type speakerLocker struct{}

func (speakerLocker) Lock()   { speaker.Lock() }
func (speakerLocker) Unlock() { speaker.Unlock() }

// Tone is a continuous sine that is muted unless the key is down. It
// satisfies keyer.Monitor.
type Tone struct {
	rate   beep.SampleRate
	ctrl   *beep.Ctrl
	stream beep.Streamer

	locker sync.Locker
	mu     sync.Mutex
	open   bool
}

// New builds the tone streamer. Nothing is played until Open.
func New(cfg Config) (*Tone, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	sine, err := generators.SineTone(cfg.SampleRate, cfg.Frequency)
	if err != nil {
		return nil, fmt.Errorf("sidetone: %w", err)
	}

	ctrl := &beep.Ctrl{Streamer: sine, Paused: true}
	t := &Tone{
		rate: cfg.SampleRate,
		ctrl: ctrl,
		stream: &effects.Volume{
			Streamer: ctrl,
			Base:     2,
			Volume:   cfg.Volume,
		},
	}
	t.locker = &t.mu
	return t, nil
}

// Streamer returns the muted-or-sounding output stream.
func (t *Tone) Streamer() beep.Streamer {
	return t.stream
}

// Open initialises the speaker and starts playback.
func (t *Tone) Open() error {
	if t.open {
		return ErrAlreadyOpen
	}
	if err := speaker.Init(t.rate, t.rate.N(20*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	t.locker = speakerLocker{}
	speaker.Play(t.stream)
	t.open = true
	return nil
}

// Close silences the tone and releases the speaker.
func (t *Tone) Close() {
	t.KeyUp()
	if !t.open {
		return
	}
	speaker.Clear()
	t.locker = &t.mu
	t.open = false
}

// KeyDown starts the tone.
func (t *Tone) KeyDown() {
	t.setPaused(false)
}

// KeyUp stops the tone.
func (t *Tone) KeyUp() {
	t.setPaused(true)
}

// Sounding reports whether the tone is currently audible.
func (t *Tone) Sounding() bool {
	t.locker.Lock()
	defer t.locker.Unlock()
	return !t.ctrl.Paused
}

func (t *Tone) setPaused(p bool) {
	t.locker.Lock()
	t.ctrl.Paused = p
	t.locker.Unlock()
}
