// Package textbuffer is a minimal concrete langmode.Buffer, line-indexed
// the way readfile.ReadLinesNormalized's \r\n-stripped split produces
// rows, used by tests and the demo viewer for an actual text store.
package textbuffer

import (
	"strings"

	"langmode"
)

// Buffer is an in-memory, line-indexed text store. Character indices are
// byte offsets into GetText(), matching the byte-offset convention
// tree-sitter's own Node.StartByte/EndByte and EditInput use; a host
// backed by UTF-16 code units would need its own adapter at this
// boundary, but nothing in this package requires it.
type Buffer struct {
	lines []string // row text, without line terminator
	ended []bool   // whether row row has a trailing "\n" (false only for a final, unterminated row)
}

// New builds a Buffer from text, normalizing "\r\n" to "\n" the way
// readfile.ReadLinesNormalized does before splitting into rows.
func New(text string) *Buffer {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	rows := strings.Split(normalized, "\n")
	b := &Buffer{
		lines: rows,
		ended: make([]bool, len(rows)),
	}
	for i := range rows {
		b.ended[i] = i < len(rows)-1
	}
	return b
}

func (b *Buffer) GetRange() langmode.Range {
	lastRow := len(b.lines) - 1
	return langmode.Range{
		Start: langmode.Point{},
		End:   langmode.Point{Row: lastRow, Column: len([]rune(b.lines[lastRow]))},
	}
}

func (b *Buffer) LineForRow(row int) string {
	if row < 0 || row >= len(b.lines) {
		return ""
	}
	return b.lines[row]
}

func (b *Buffer) LineLengthForRow(row int) int {
	return len([]rune(b.LineForRow(row)))
}

func (b *Buffer) LineEndingForRow(row int) string {
	if row < 0 || row >= len(b.ended) || !b.ended[row] {
		return ""
	}
	return "\n"
}

func (b *Buffer) IsRowBlank(row int) bool {
	return strings.TrimSpace(b.LineForRow(row)) == ""
}

func (b *Buffer) ClipPosition(p langmode.Point) langmode.Point {
	if len(b.lines) == 0 {
		return langmode.Point{}
	}
	row := clampInt(p.Row, 0, len(b.lines)-1)
	col := clampInt(p.Column, 0, b.LineLengthForRow(row))
	return langmode.Point{Row: row, Column: col}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetText joins every row back into one string with "\n" line endings,
// preserving whether the final row was itself newline-terminated.
func (b *Buffer) GetText() string {
	var sb strings.Builder
	for i, line := range b.lines {
		sb.WriteString(line)
		if b.ended[i] {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (b *Buffer) GetTextInRange(r langmode.Range) string {
	if r.Start.Row == r.End.Row {
		runes := []rune(b.LineForRow(r.Start.Row))
		start := clampInt(r.Start.Column, 0, len(runes))
		end := clampInt(r.End.Column, start, len(runes))
		return string(runes[start:end])
	}
	var sb strings.Builder
	startRunes := []rune(b.LineForRow(r.Start.Row))
	start := clampInt(r.Start.Column, 0, len(startRunes))
	sb.WriteString(string(startRunes[start:]))
	if b.ended[r.Start.Row] {
		sb.WriteByte('\n')
	}
	for row := r.Start.Row + 1; row < r.End.Row; row++ {
		sb.WriteString(b.LineForRow(row))
		if b.ended[row] {
			sb.WriteByte('\n')
		}
	}
	endRunes := []rune(b.LineForRow(r.End.Row))
	end := clampInt(r.End.Column, 0, len(endRunes))
	sb.WriteString(string(endRunes[:end]))
	return sb.String()
}

// CharacterIndexForPosition returns the byte offset of p within GetText().
func (b *Buffer) CharacterIndexForPosition(p langmode.Point) int {
	p = b.ClipPosition(p)
	idx := 0
	for row := 0; row < p.Row; row++ {
		idx += len(b.lines[row])
		if b.ended[row] {
			idx++
		}
	}
	runes := []rune(b.lines[p.Row])
	col := clampInt(p.Column, 0, len(runes))
	idx += len(string(runes[:col]))
	return idx
}

// PositionForCharacterIndex is the inverse of CharacterIndexForPosition.
func (b *Buffer) PositionForCharacterIndex(idx int) langmode.Point {
	if idx < 0 {
		idx = 0
	}
	remaining := idx
	for row, line := range b.lines {
		lineBytes := len(line)
		lineTotal := lineBytes
		if b.ended[row] {
			lineTotal++
		}
		if remaining <= lineBytes {
			col := len([]rune(line[:remaining]))
			return langmode.Point{Row: row, Column: col}
		}
		remaining -= lineTotal
		if remaining < 0 {
			remaining = 0
		}
	}
	last := len(b.lines) - 1
	return langmode.Point{Row: last, Column: b.LineLengthForRow(last)}
}

// ApplyEdit replaces the text in oldRange with newText and returns the
// BufferChange a host would report to LanguageMode.BufferDidChange.
func (b *Buffer) ApplyEdit(oldRange langmode.Range, newText string) langmode.BufferChange {
	oldText := b.GetTextInRange(oldRange)
	full := b.GetText()
	startByte := b.CharacterIndexForPosition(oldRange.Start)
	endByte := b.CharacterIndexForPosition(oldRange.End)
	newFull := full[:startByte] + newText + full[endByte:]

	newEndIdx := startByte + len(newText)
	*b = *New(newFull)
	newEndPos := b.PositionForCharacterIndex(newEndIdx)

	return langmode.BufferChange{
		OldRange: oldRange,
		NewRange: langmode.Range{Start: oldRange.Start, End: newEndPos},
		OldText:  oldText,
		NewText:  newText,
	}
}
