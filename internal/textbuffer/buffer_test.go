package textbuffer

import (
	"testing"

	"langmode"
)

func TestNewAndGetText(t *testing.T) {
	b := New("package main\n\nfunc main() {}\n")
	if got := b.GetText(); got != "package main\n\nfunc main() {}\n" {
		t.Fatalf("GetText roundtrip mismatch: %q", got)
	}
}

func TestNewNormalizesCRLF(t *testing.T) {
	b := New("one\r\ntwo\r\nthree")
	if got := b.GetText(); got != "one\ntwo\nthree" {
		t.Fatalf("expected CRLF normalized, got %q", got)
	}
}

func TestLineForRow(t *testing.T) {
	b := New("alpha\nbeta\ngamma")
	if got := b.LineForRow(1); got != "beta" {
		t.Errorf("LineForRow(1) = %q, want beta", got)
	}
	if got := b.LineForRow(99); got != "" {
		t.Errorf("out-of-range row should return empty string, got %q", got)
	}
}

func TestGetRange(t *testing.T) {
	b := New("ab\ncde")
	r := b.GetRange()
	want := langmode.Range{Start: langmode.Point{}, End: langmode.Point{Row: 1, Column: 3}}
	if r != want {
		t.Fatalf("GetRange() = %+v, want %+v", r, want)
	}
}

func TestCharacterIndexForPositionRoundTrip(t *testing.T) {
	text := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	b := New(text)
	for row := 0; row < len(b.lines); row++ {
		for col := 0; col <= b.LineLengthForRow(row); col++ {
			p := langmode.Point{Row: row, Column: col}
			idx := b.CharacterIndexForPosition(p)
			got := b.PositionForCharacterIndex(idx)
			if got != p {
				t.Errorf("roundtrip mismatch at %+v: index %d decoded to %+v", p, idx, got)
			}
		}
	}
}

func TestGetTextInRangeSingleLine(t *testing.T) {
	b := New("hello world")
	got := b.GetTextInRange(langmode.Range{Start: langmode.Point{0, 6}, End: langmode.Point{0, 11}})
	if got != "world" {
		t.Fatalf("GetTextInRange = %q, want world", got)
	}
}

func TestGetTextInRangeMultiLine(t *testing.T) {
	b := New("one\ntwo\nthree")
	got := b.GetTextInRange(langmode.Range{Start: langmode.Point{0, 1}, End: langmode.Point{2, 2}})
	if got != "ne\ntwo\nth" {
		t.Fatalf("GetTextInRange = %q, want \"ne\\ntwo\\nth\"", got)
	}
}

func TestApplyEdit(t *testing.T) {
	b := New("foo bar baz")
	change := b.ApplyEdit(langmode.Range{Start: langmode.Point{0, 4}, End: langmode.Point{0, 7}}, "qux")
	if got := b.GetText(); got != "foo qux baz" {
		t.Fatalf("after ApplyEdit, GetText() = %q, want %q", got, "foo qux baz")
	}
	if change.OldText != "bar" {
		t.Errorf("change.OldText = %q, want bar", change.OldText)
	}
	if change.NewText != "qux" {
		t.Errorf("change.NewText = %q, want qux", change.NewText)
	}
	wantEnd := langmode.Point{0, 7}
	if change.NewRange.End != wantEnd {
		t.Errorf("change.NewRange.End = %+v, want %+v", change.NewRange.End, wantEnd)
	}
}

func TestClipPosition(t *testing.T) {
	b := New("ab\ncde")
	got := b.ClipPosition(langmode.Point{Row: 5, Column: 5})
	want := langmode.Point{Row: 1, Column: 3}
	if got != want {
		t.Fatalf("ClipPosition out-of-range = %+v, want %+v", got, want)
	}
}

func TestIsRowBlank(t *testing.T) {
	b := New("foo\n   \n")
	if b.IsRowBlank(0) {
		t.Error("row 0 is not blank")
	}
	if !b.IsRowBlank(1) {
		t.Error("row 1 is whitespace-only, should be blank")
	}
}
