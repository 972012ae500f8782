// internal/cw/morse.go
// Package cw holds the Morse code table and the speed-derived timing used to
// classify key presses as dots or dashes.
package cw

import (
	"sort"
	"strings"
)

// Symbol is a single Morse element.
type Symbol byte

const (
	// Dot is a short press
	Dot Symbol = '.'
	// Dash is a press longer than the dash threshold
	Dash Symbol = '_'
)

// MaxPatternLength is the longest code in the table. A pattern that reaches
// this length without matching is shrunk from the front before retrying.
const MaxPatternLength = 5

// Pattern is an ordered run of symbols, e.g. "_..." for b.
type Pattern string

// Append returns p with s added at the end.
func (p Pattern) Append(s Symbol) Pattern {
	return p + Pattern(s)
}

// DropOldest returns p without its first symbol.
func (p Pattern) DropOldest() Pattern {
	if len(p) == 0 {
		return p
	}
	return p[1:]
}

// Valid reports whether p is made only of dots and dashes.
func (p Pattern) Valid() bool {
	return strings.Trim(string(p), string([]byte{byte(Dot), byte(Dash)})) == ""
}

// table is the international Morse alphanumeric table.
var table = map[Pattern]rune{
	"._":    'a',
	"_...":  'b',
	"_._.":  'c',
	"_..":   'd',
	".":     'e',
	".._.":  'f',
	"__.":   'g',
	"....":  'h',
	"..":    'i',
	".___":  'j',
	"_._":   'k',
	"._..":  'l',
	"__":    'm',
	"_.":    'n',
	"___":   'o',
	".__.":  'p',
	"__._":  'q',
	"._.":   'r',
	"...":   's',
	"_":     't',
	".._":   'u',
	"..._":  'v',
	".__":   'w',
	"_.._":  'x',
	"_.__":  'y',
	"__..":  'z',
	".____": '1',
	"..___": '2',
	"...__": '3',
	"...._": '4',
	".....": '5',
	"_....": '6',
	"__...": '7',
	"___..": '8',
	"____.": '9',
	"_____": '0',
}

// reverse is built once from table for Encode.
var reverse = func() map[rune]Pattern {
	m := make(map[rune]Pattern, len(table))
	for p, r := range table {
		m[r] = p
	}
	return m
}()

// Lookup returns the character for an exact pattern match.
// Prefixes never match; the caller shrinks the pattern itself.
func Lookup(p Pattern) (rune, bool) {
	r, ok := table[p]
	return r, ok
}

// Encode returns the pattern for a table character. Upper case letters are
// folded to lower case.
func Encode(r rune) (Pattern, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	p, ok := reverse[r]
	return p, ok
}

// Entry is one row of the table.
type Entry struct {
	Char    rune
	Pattern Pattern
}

// Entries returns the whole table ordered letters first, then digits.
func Entries() []Entry {
	out := make([]Entry, 0, len(table))
	for p, r := range table {
		out = append(out, Entry{Char: r, Pattern: p})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Char, out[j].Char
		aDigit, bDigit := a <= '9', b <= '9'
		if aDigit != bDigit {
			return bDigit
		}
		return a < b
	})
	return out
}
