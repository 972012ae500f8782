// internal/term/ui.go
package term

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ColonelBlimp/cwkeyer/internal/dsp"
	"github.com/ColonelBlimp/cwkeyer/internal/keyer"
	"github.com/ColonelBlimp/cwkeyer/internal/sched"
)

// RadioField names the field fed from the audio detector.
const RadioField = "radio"

const helpText = "hold the mouse button on a field to key  q quit  ctrl-l clear"

// ErrNoFields is returned when the UI would have nothing to key.
var ErrNoFields = errors.New("at least one field is required")

// Recorder receives every press edge the UI routes to the keyer.
type Recorder interface {
	Record(field string, down bool, at time.Time) error
}

// Options configures the UI.
type Options struct {
	// Fields are the labels of the mouse-keyed fields, top to bottom.
	Fields []string
	// Width is the interior width of each field in columns.
	Width int
	// WPM applies to every field. Zero selects the default speed.
	WPM int
	// Radio adds a field fed by Feed.
	Radio    bool
	Recorder Recorder
	Monitor  keyer.Monitor
	Logger   *slog.Logger
}

// UI draws the fields and turns mouse presses into keyer events. Every
// method except Run must be called on the scheduler's goroutine.
type UI struct {
	screen tcell.Screen
	keyer  *keyer.Keyer
	log    *slog.Logger
	rec    Recorder

	fields []*Field
	radio  *Field
	held   *Field // field that received the current mouse press

	style  tcell.Style
	header string
}

// New lays out the fields on screen and starts a keyer session for each.
// The screen must already be initialised.
func New(screen tcell.Screen, s sched.Scheduler, opts Options) (*UI, error) {
	if len(opts.Fields) == 0 && !opts.Radio {
		return nil, ErrNoFields
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	kopts := []keyer.Option{keyer.WithLogger(log)}
	if opts.Monitor != nil {
		kopts = append(kopts, keyer.WithMonitor(opts.Monitor))
	}

	u := &UI{
		screen: screen,
		keyer:  keyer.New(s, kopts...),
		log:    log,
		rec:    opts.Recorder,
		style:  tcell.StyleDefault,
	}

	names := opts.Fields
	if opts.Radio {
		names = append(append([]string(nil), names...), RadioField)
	}
	cfg := &keyer.Config{WPM: opts.WPM}
	for i, name := range names {
		f := NewField(name, 0, 1+i*FieldHeight, opts.Width)
		f.onChange = u.Draw
		if _, err := u.keyer.Start(f, cfg); err != nil {
			u.keyer.StopAll()
			return nil, fmt.Errorf("start field %q: %w", name, err)
		}
		u.fields = append(u.fields, f)
	}
	if opts.Radio {
		u.radio = u.fields[len(u.fields)-1]
	}

	wpm := opts.WPM
	if wpm == 0 {
		wpm = keyer.DefaultConfig().WPM
	}
	u.header = fmt.Sprintf("cwkeyer %d wpm  %s", wpm, helpText)

	screen.EnableMouse(tcell.MouseButtonEvents)
	u.Draw()
	return u, nil
}

// Fields returns the fields in screen order.
func (u *UI) Fields() []*Field {
	return u.fields
}

// Radio returns the audio-fed field, or nil when there is none.
func (u *UI) Radio() *Field {
	return u.radio
}

// Keyer exposes the keyer driving the fields.
func (u *UI) Keyer() *keyer.Keyer {
	return u.keyer
}

// HandleEvent processes one terminal event and redraws. It returns true when
// the user asked to quit.
func (u *UI) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		x, y := ev.Position()
		u.mouse(x, y, ev.Buttons(), ev.When())
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyCtrlL:
			for _, f := range u.fields {
				f.Clear()
			}
		case tcell.KeyRune:
			if ev.Rune() == 'q' {
				return true
			}
		}
	case *tcell.EventResize:
		u.screen.Sync()
	}
	u.Draw()
	return false
}

func (u *UI) mouse(x, y int, buttons tcell.ButtonMask, at time.Time) {
	if buttons&tcell.Button1 != 0 {
		if u.held != nil {
			return // drag with the button held
		}
		for _, f := range u.fields {
			if f != u.radio && f.Contains(x, y) {
				u.held = f
				u.press(f, true, at)
				return
			}
		}
		return
	}
	if u.held != nil {
		f := u.held
		u.held = nil
		u.press(f, false, at)
	}
}

// Feed routes a detector event to the radio field.
func (u *UI) Feed(ev dsp.KeyEvent) {
	if u.radio == nil {
		return
	}
	u.press(u.radio, ev.Down, ev.At)
	u.Draw()
}

func (u *UI) press(f *Field, down bool, at time.Time) {
	var err error
	if down {
		err = u.keyer.PressDown(f, at)
	} else {
		err = u.keyer.PressUp(f, at)
	}
	if err != nil {
		u.log.Error("press not delivered", "field", f.Name(), "error", err)
		return
	}
	if u.rec != nil {
		if err := u.rec.Record(f.Name(), down, at); err != nil {
			u.log.Warn("press not recorded", "field", f.Name(), "error", err)
		}
	}
}

// Draw repaints the whole screen.
func (u *UI) Draw() {
	u.screen.Clear()
	putString(u.screen, 0, 0, u.header, u.style.Dim(true))
	for _, f := range u.fields {
		style := u.style
		if f == u.held {
			style = style.Foreground(tcell.ColorGreen)
		}
		f.Draw(u.screen, style, u.status(f))
	}
	u.screen.Show()
}

func (u *UI) status(f *Field) string {
	if s, ok := u.keyer.Registry().LookupTarget(f); ok {
		return string(s.Pattern())
	}
	return ""
}

// Close stops every session so no timer touches the fields afterwards.
func (u *UI) Close() {
	u.keyer.StopAll()
}

// Run pumps terminal events onto loop until the user quits or ctx is done.
// loop must be the scheduler the UI was created with. A user quit returns nil.
func (u *UI) Run(ctx context.Context, loop *sched.Loop) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var quit bool
	events := make(chan tcell.Event, 64)
	stop := make(chan struct{})
	go u.screen.ChannelEvents(events, stop)
	go func() {
		for ev := range events {
			err := loop.Post(func() {
				if u.HandleEvent(ev) {
					quit = true
					cancel()
				}
			})
			if err != nil {
				return
			}
		}
	}()

	err := loop.Run(ctx)
	close(stop)
	u.Close()
	if quit {
		return nil
	}
	return err
}
