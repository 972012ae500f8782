package cw

import (
	"testing"
)

func TestTable_Size(t *testing.T) {
	if len(table) != 36 {
		t.Errorf("len(table) = %d, want 36", len(table))
	}
	if len(reverse) != len(table) {
		t.Errorf("len(reverse) = %d, want %d (duplicate output in table)", len(reverse), len(table))
	}
}

func TestTable_PatternsWellFormed(t *testing.T) {
	for p, r := range table {
		if len(p) < 1 || len(p) > MaxPatternLength {
			t.Errorf("pattern %q for %c has length %d, want 1..%d", p, r, len(p), MaxPatternLength)
		}
		if !p.Valid() {
			t.Errorf("pattern %q for %c contains symbols other than dot and dash", p, r)
		}
	}
}

func TestTable_CoversAlphanumerics(t *testing.T) {
	for r := 'a'; r <= 'z'; r++ {
		if _, ok := Encode(r); !ok {
			t.Errorf("Encode(%c) not found", r)
		}
	}
	for r := '0'; r <= '9'; r++ {
		if _, ok := Encode(r); !ok {
			t.Errorf("Encode(%c) not found", r)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		pattern Pattern
		want    rune
		wantOK  bool
	}{
		{".", 'e', true},
		{"_", 't', true},
		{"._", 'a', true},
		{"_...", 'b', true},
		{"...__", '3', true},
		{"_____", '0', true},
		{"", 0, false},
		{"..__", 0, false},
		{"._._.", 0, false},
		{"......", 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			got, ok := Lookup(tt.pattern)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Lookup(%q) = %q, %v, want %q, %v", tt.pattern, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLookup_NoPrefixMatch(t *testing.T) {
	// "_.." is d; "_..." is b. A prefix must not match the longer code.
	if r, _ := Lookup("_.."); r != 'd' {
		t.Errorf("Lookup(_..) = %c, want d", r)
	}
	if _, ok := Lookup("_.._."); ok {
		t.Error("Lookup(_.._.) should not match")
	}
}

func TestEncode_FoldsUpperCase(t *testing.T) {
	lower, _ := Encode('q')
	upper, ok := Encode('Q')
	if !ok || upper != lower {
		t.Errorf("Encode(Q) = %q, %v, want %q", upper, ok, lower)
	}
	if _, ok := Encode('?'); ok {
		t.Error("Encode(?) should not be found")
	}
}

func TestPattern_AppendAndDrop(t *testing.T) {
	var p Pattern
	p = p.Append(Dash).Append(Dot).Append(Dot)
	if p != "_.." {
		t.Errorf("p = %q, want _..", p)
	}
	p = p.DropOldest()
	if p != ".." {
		t.Errorf("after DropOldest p = %q, want ..", p)
	}
	if got := Pattern("").DropOldest(); got != "" {
		t.Errorf("empty DropOldest = %q, want empty", got)
	}
}

func TestEntries_Ordered(t *testing.T) {
	entries := Entries()
	if len(entries) != 36 {
		t.Fatalf("len(Entries()) = %d, want 36", len(entries))
	}
	if entries[0].Char != 'a' || entries[25].Char != 'z' {
		t.Errorf("letters not first: got %c..%c", entries[0].Char, entries[25].Char)
	}
	if entries[26].Char != '0' || entries[35].Char != '9' {
		t.Errorf("digits not last: got %c..%c", entries[26].Char, entries[35].Char)
	}
	for _, e := range entries {
		if r, ok := Lookup(e.Pattern); !ok || r != e.Char {
			t.Errorf("entry %c/%q does not round-trip through Lookup", e.Char, e.Pattern)
		}
	}
}
