// internal/term/field.go
// Package term is the terminal surface: text fields that are keyed with the
// mouse and receive decoded characters.
package term

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// FieldHeight is the number of rows a field occupies, borders included.
const FieldHeight = 3

// Field is a boxed single-line text element. Decoded characters are appended
// to it; the line shows the newest text that fits.
type Field struct {
	name  string
	x, y  int
	width int // interior columns

	text     strings.Builder
	onChange func()
}

// NewField places a field with its top-left border corner at x, y.
func NewField(name string, x, y, width int) *Field {
	if width < 1 {
		width = 1
	}
	return &Field{name: name, x: x, y: y, width: width}
}

// Name returns the field label.
func (f *Field) Name() string { return f.name }

// AppendText implements keyer.Appender.
func (f *Field) AppendText(s string) error {
	f.text.WriteString(s)
	f.changed()
	return nil
}

// Text returns everything appended since the last Clear.
func (f *Field) Text() string {
	return f.text.String()
}

// Clear empties the field.
func (f *Field) Clear() {
	f.text.Reset()
	f.changed()
}

func (f *Field) changed() {
	if f.onChange != nil {
		f.onChange()
	}
}

// Contains reports whether screen cell x, y lies within the field box.
func (f *Field) Contains(x, y int) bool {
	return x >= f.x && x < f.x+f.width+2 && y >= f.y && y < f.y+FieldHeight
}

// Visible returns the tail of the text that fits the interior width.
func (f *Field) Visible() string {
	return tail(f.Text(), f.width)
}

// tail keeps the rightmost runes of s whose display width fits in cols.
func tail(s string, cols int) string {
	if runewidth.StringWidth(s) <= cols {
		return s
	}
	runes := []rune(s)
	used, i := 0, len(runes)
	for i > 0 {
		w := runewidth.RuneWidth(runes[i-1])
		if used+w > cols {
			break
		}
		used += w
		i--
	}
	return string(runes[i:])
}

// Draw renders the box, the label and the visible text. status is shown in
// the top border after the label.
func (f *Field) Draw(s tcell.Screen, style tcell.Style, status string) {
	right := f.x + f.width + 1
	bottom := f.y + FieldHeight - 1

	for x := f.x + 1; x < right; x++ {
		s.SetContent(x, f.y, tcell.RuneHLine, nil, style)
		s.SetContent(x, f.y+1, ' ', nil, style)
		s.SetContent(x, bottom, tcell.RuneHLine, nil, style)
	}
	s.SetContent(f.x, f.y, tcell.RuneULCorner, nil, style)
	s.SetContent(right, f.y, tcell.RuneURCorner, nil, style)
	s.SetContent(f.x, f.y+1, tcell.RuneVLine, nil, style)
	s.SetContent(right, f.y+1, tcell.RuneVLine, nil, style)
	s.SetContent(f.x, bottom, tcell.RuneLLCorner, nil, style)
	s.SetContent(right, bottom, tcell.RuneLRCorner, nil, style)

	label := " " + f.name + " "
	if status != "" {
		label += status + " "
	}
	putString(s, f.x+2, f.y, runewidth.Truncate(label, f.width-2, ""), style.Bold(true))
	putString(s, f.x+1, f.y+1, f.Visible(), style)
}

// putString writes s from column x, advancing by each rune's display width.
func putString(s tcell.Screen, x, y int, str string, style tcell.Style) int {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}
