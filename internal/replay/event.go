// internal/replay/event.go
// Package replay records key presses as JSON lines and decodes them again
// on a virtual clock.
package replay

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ColonelBlimp/cwkeyer/internal/cw"
)

const (
	eventDown = "down"
	eventUp   = "up"
)

// ErrMalformedEvent is returned for a press log line that cannot be used.
var ErrMalformedEvent = errors.New("malformed press event")

// Event is one press edge on a named field, offset from the first event.
type Event struct {
	Field  string
	Down   bool
	Offset time.Duration
}

// ParseEvent decodes a single press log line.
func ParseEvent(line string) (Event, error) {
	if !gjson.Valid(line) {
		return Event{}, fmt.Errorf("%w: invalid json", ErrMalformedEvent)
	}
	res := gjson.GetMany(line, "field", "event", "t_ms")
	field, kind, ms := res[0], res[1], res[2]

	if field.Type != gjson.String || field.Str == "" {
		return Event{}, fmt.Errorf("%w: missing field name", ErrMalformedEvent)
	}

	ev := Event{Field: field.Str}
	switch kind.String() {
	case eventDown:
		ev.Down = true
	case eventUp:
	default:
		return Event{}, fmt.Errorf("%w: event must be %q or %q, got %q",
			ErrMalformedEvent, eventDown, eventUp, kind.String())
	}

	if ms.Type != gjson.Number || ms.Num < 0 || ms.Num != float64(ms.Int()) {
		return Event{}, fmt.Errorf("%w: t_ms must be a non-negative integer", ErrMalformedEvent)
	}
	ev.Offset = time.Duration(ms.Int()) * time.Millisecond
	return ev, nil
}

// Parse reads a press log. Blank lines are skipped; offsets must not go
// backwards.
func Parse(r io.Reader) ([]Event, error) {
	var (
		events []Event
		last   time.Duration
	)
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ev, err := ParseEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if ev.Offset < last {
			return nil, fmt.Errorf("line %d: %w: t_ms %d before %d", n, ErrMalformedEvent,
				ev.Offset.Milliseconds(), last.Milliseconds())
		}
		last = ev.Offset
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read press log: %w", err)
	}
	return events, nil
}

// Script produces the press events an ideal fist would send for text on
// field, starting at offset zero. Characters with no code are skipped.
func Script(field, text string, t cw.Timing) []Event {
	var (
		events []Event
		at     time.Duration
	)
	press := func(hold time.Duration) {
		events = append(events,
			Event{Field: field, Down: true, Offset: at},
			Event{Field: field, Down: false, Offset: at + hold})
		at += hold + t.Unit
	}

	for _, word := range strings.Fields(text) {
		for _, r := range word {
			p, ok := cw.Encode(r)
			if !ok {
				continue
			}
			for i := 0; i < len(p); i++ {
				if cw.Symbol(p[i]) == cw.Dash {
					press(t.DashThreshold + t.Unit)
				} else {
					press(t.Unit)
				}
			}
			// Wait out the letter gap after the last symbol's trailing unit.
			at += t.LetterGap
		}
		at += t.WordGapRemainder
	}
	return events
}

// Merge interleaves event streams by offset. Events with equal offsets keep
// their argument order.
func Merge(streams ...[]Event) []Event {
	var all []Event
	for _, s := range streams {
		all = append(all, s...)
	}
	slices.SortStableFunc(all, func(a, b Event) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return all
}
