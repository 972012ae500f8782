// internal/replay/player.go
package replay

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/cw"
	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/sched"
)

// Transcript is the decoded text of one field.
type Transcript struct {
	Field string
	text  strings.Builder
}

// AppendText implements keyer.Appender.
func (t *Transcript) AppendText(s string) error {
	t.text.WriteString(s)
	return nil
}

// Text returns everything decoded so far.
func (t *Transcript) Text() string {
	return t.text.String()
}

// Player decodes a press log on a virtual clock, so playback takes no real
// time and is repeatable.
type Player struct {
	wpm int
	log *slog.Logger
}

// NewPlayer decodes every field at wpm, zero selecting cw.DefaultWPM. A nil
// logger discards output.
func NewPlayer(wpm int, log *slog.Logger) *Player {
	if wpm == 0 {
		wpm = cw.DefaultWPM
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Player{wpm: wpm, log: log}
}

// Play feeds events to a fresh keyer and returns one transcript per field in
// order of first appearance. After the last event the clock runs on long
// enough for a pending letter and word space to land.
func (p *Player) Play(events []Event) ([]*Transcript, error) {
	timing, err := cw.NewTiming(p.wpm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", keyer.ErrInvalidConfig, err)
	}

	origin := time.Unix(0, 0).UTC()
	clock := sched.NewVirtual(origin)
	k := keyer.New(clock, keyer.WithLogger(p.log))
	cfg := &keyer.Config{WPM: p.wpm}

	var (
		order   []*Transcript
		byField = make(map[string]*Transcript)
	)
	for i, ev := range events {
		tr, ok := byField[ev.Field]
		if !ok {
			tr = &Transcript{Field: ev.Field}
			if _, err := k.Start(tr, cfg); err != nil {
				return nil, fmt.Errorf("start field %q: %w", ev.Field, err)
			}
			byField[ev.Field] = tr
			order = append(order, tr)
		}

		clock.AdvanceTo(origin.Add(ev.Offset))
		press := k.PressUp
		if ev.Down {
			press = k.PressDown
		}
		if err := press(tr, clock.Now()); err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
	}

	clock.Advance(timing.LetterGap + timing.WordGapRemainder)
	p.log.Debug("replay finished", "events", len(events), "fields", len(order))
	k.StopAll()
	return order, nil
}
