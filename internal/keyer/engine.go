// internal/keyer/engine.go
package keyer

import (
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/cw"
)

// wordSpace is appended when the word gap elapses after a decoded letter.
const wordSpace = " "

// pressDown supersedes any pending letter or word timer.
func (k *Keyer) pressDown(s *Session, at time.Time) {
	k.sched.Cancel(s.letterTimer)
	k.sched.Cancel(s.spaceTimer)
	s.letterTimer, s.spaceTimer = nil, nil

	s.pressStart = at
	s.pressed = true
	if k.monitor != nil {
		k.monitor.KeyDown()
	}
}

// pressUp classifies the press and arms the letter timer.
func (k *Keyer) pressUp(s *Session, at time.Time) {
	if !s.pressed {
		k.log.Debug("release without press ignored", "session", s.id)
		return
	}
	s.pressed = false
	if k.monitor != nil {
		k.monitor.KeyUp()
	}

	duration := at.Sub(s.pressStart)
	if duration < 0 {
		duration = 0
	}
	sym := s.timing.Classify(duration)
	s.pattern = s.pattern.Append(sym)
	k.log.Debug("symbol", "session", s.id, "duration", duration, "symbol", string(sym), "pattern", string(s.pattern))

	k.sched.Cancel(s.letterTimer)
	s.letterTimer = k.sched.Schedule(s.timing.LetterGap, func() {
		k.resolve(s)
	})
}

// resolve runs when the letter gap elapses. An exact match is emitted and the
// word timer armed. Without a match, a pattern at the maximum code length
// loses its oldest symbol and is retried; a shorter one is left in place
// until the next press.
func (k *Keyer) resolve(s *Session) {
	s.letterTimer = nil
	for {
		if r, ok := cw.Lookup(s.pattern); ok {
			k.emit(s, string(r))
			s.pattern = ""

			k.sched.Cancel(s.spaceTimer)
			s.spaceTimer = k.sched.Schedule(s.timing.WordGapRemainder, func() {
				s.spaceTimer = nil
				k.emit(s, wordSpace)
			})
			return
		}
		if len(s.pattern) < cw.MaxPatternLength {
			if len(s.pattern) > 0 {
				k.log.Debug("pattern stalled without match", "session", s.id, "pattern", string(s.pattern))
			}
			return
		}
		s.pattern = s.pattern.DropOldest()
	}
}

func (k *Keyer) emit(s *Session, text string) {
	if err := s.out.AppendText(text); err != nil {
		k.log.Error("append to target failed", "session", s.id, "text", text, "error", err)
		return
	}
	k.log.Debug("decoded", "session", s.id, "text", text)
}
