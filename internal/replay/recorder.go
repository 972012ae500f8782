// internal/replay/recorder.go
package replay

import (
	"fmt"
	"io"
	"time"

	"github.com/tidwall/sjson"
)

// Recorder appends press events to a log, one JSON object per line. Offsets
// are measured from the first recorded event.
type Recorder struct {
	w       io.Writer
	start   time.Time
	started bool
}

// NewRecorder writes to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Record writes one press edge for the named field.
func (r *Recorder) Record(field string, down bool, at time.Time) error {
	if !r.started {
		r.start = at
		r.started = true
	}
	offset := at.Sub(r.start)
	if offset < 0 {
		offset = 0
	}
	return writeEvent(r.w, Event{Field: field, Down: down, Offset: offset})
}

// WriteEvents writes events in press log format.
func WriteEvents(w io.Writer, events []Event) error {
	for _, ev := range events {
		if err := writeEvent(w, ev); err != nil {
			return err
		}
	}
	return nil
}

func writeEvent(w io.Writer, ev Event) error {
	kind := eventUp
	if ev.Down {
		kind = eventDown
	}

	line, err := sjson.Set("", "field", ev.Field)
	if err == nil {
		line, err = sjson.Set(line, "event", kind)
	}
	if err == nil {
		line, err = sjson.Set(line, "t_ms", ev.Offset.Milliseconds())
	}
	if err != nil {
		return fmt.Errorf("encode press event: %w", err)
	}

	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("write press event: %w", err)
	}
	return nil
}
