// internal/keyer/keyer.go
// Package keyer turns timed press-down/press-up events on registered targets
// into Morse characters appended to those targets.
//
// A Keyer is single-threaded: Start, Stop, PressDown, PressUp and every timer
// callback must run on the goroutine that drives its scheduler (the
// sched.Loop goroutine in production, the test goroutine with sched.Virtual).
package keyer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/cw"
	"github.com/ColonelBlimp/cwkeyer/internal/sched"
)

// Config holds per-target settings.
type Config struct {
	// WPM is the keying speed in words per minute. Zero selects cw.DefaultWPM.
	WPM int `mapstructure:"wpm"`
}

// DefaultConfig returns the settings used when Start is given no config.
func DefaultConfig() Config {
	return Config{WPM: cw.DefaultWPM}
}

// Validate checks the config, treating a zero WPM as unset.
func (c Config) Validate() error {
	if c.WPM == 0 {
		return nil
	}
	if _, err := cw.NewTiming(c.WPM); err != nil {
		return fmt.Errorf("%w: wpm %d: %w", ErrInvalidConfig, c.WPM, err)
	}
	return nil
}

// Monitor observes the key itself, e.g. to sound a sidetone while a press is held.
type Monitor interface {
	KeyDown()
	KeyUp()
}

// Keyer owns the session registry and runs the decode engine for every
// registered target.
type Keyer struct {
	reg     *Registry
	sched   sched.Scheduler
	log     *slog.Logger
	monitor Monitor
}

// Option configures a Keyer.
type Option func(*Keyer)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(k *Keyer) {
		if l != nil {
			k.log = l
		}
	}
}

// WithMonitor attaches a key monitor.
func WithMonitor(m Monitor) Option {
	return func(k *Keyer) {
		k.monitor = m
	}
}

// New creates a Keyer whose timers run on s.
func New(s sched.Scheduler, opts ...Option) *Keyer {
	k := &Keyer{
		reg:   NewRegistry(s),
		sched: s,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Registry exposes the session registry.
func (k *Keyer) Registry() *Registry {
	return k.reg
}

// Start enables Morse input on target. It returns false without touching the
// existing session when target is already registered. A nil cfg selects
// DefaultConfig.
func (k *Keyer) Start(target any, cfg *Config) (bool, error) {
	if isNil(target) {
		return false, ErrMissingTarget
	}
	c := DefaultConfig()
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return false, err
		}
		if cfg.WPM != 0 {
			c.WPM = cfg.WPM
		}
	}

	id, err := k.reg.Register(target, c.WPM)
	if errors.Is(err, ErrAlreadyRegistered) {
		k.log.Debug("target already registered", "target", fmt.Sprintf("%T", target))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	k.log.Info("keyer started", "session", id, "wpm", c.WPM)
	return true, nil
}

// Stop disables Morse input on target, cancelling any pending letter or
// word timer so nothing more is appended.
func (k *Keyer) Stop(target any) error {
	if isNil(target) {
		return ErrMissingTarget
	}
	s, ok := k.reg.LookupTarget(target)
	if !ok {
		return ErrNotRegistered
	}
	k.release(s)
	k.reg.Deregister(s.id)
	k.log.Info("keyer stopped", "session", s.id)
	return nil
}

// StopAll stops every registered target.
func (k *Keyer) StopAll() {
	for _, id := range k.reg.IDs() {
		if s, ok := k.reg.Lookup(id); ok {
			k.release(s)
		}
		k.reg.Deregister(id)
	}
}

// PressDown records the start of a press on target at the given time.
func (k *Keyer) PressDown(target any, at time.Time) error {
	s, ok := k.reg.LookupTarget(target)
	if !ok {
		return ErrNotRegistered
	}
	k.pressDown(s, at)
	return nil
}

// PressUp records the end of a press on target at the given time.
func (k *Keyer) PressUp(target any, at time.Time) error {
	s, ok := k.reg.LookupTarget(target)
	if !ok {
		return ErrNotRegistered
	}
	k.pressUp(s, at)
	return nil
}

// release silences the monitor for a session that is torn down mid-press.
func (k *Keyer) release(s *Session) {
	if s.pressed {
		s.pressed = false
		if k.monitor != nil {
			k.monitor.KeyUp()
		}
	}
}
