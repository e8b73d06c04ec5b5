package langmode

import sitter "github.com/smacker/go-tree-sitter"

// Point is a zero-based (row, column) buffer position. Column is in the host
// Buffer's own unit (internal/textbuffer counts runes); points taken from
// tree-sitter nodes are copied field for field, with no unit conversion.
type Point struct {
	Row    int
	Column int
}

// ComparePoints orders two points in buffer order.
func ComparePoints(a, b Point) int {
	if a.Row != b.Row {
		if a.Row < b.Row {
			return -1
		}
		return 1
	}
	if a.Column != b.Column {
		if a.Column < b.Column {
			return -1
		}
		return 1
	}
	return 0
}

func (p Point) IsLessThan(o Point) bool    { return ComparePoints(p, o) < 0 }
func (p Point) IsLessOrEqual(o Point) bool { return ComparePoints(p, o) <= 0 }

func minPoint(a, b Point) Point {
	if a.IsLessOrEqual(b) {
		return a
	}
	return b
}

func maxPoint(a, b Point) Point {
	if a.IsLessOrEqual(b) {
		return b
	}
	return a
}

// MaxPoint is a point greater than any real buffer position. Fold starts
// use InfiniteColumn (fold.go) for their "end of the row" column instead.
var MaxPoint = Point{Row: 1<<31 - 1, Column: 1<<31 - 1}

// Range is a half-open [Start, End) buffer range.
type Range struct {
	Start Point
	End   Point
}

// ContainsPoint reports whether p lies in [r.Start, r.End).
func (r Range) ContainsPoint(p Point) bool {
	return r.Start.IsLessOrEqual(p) && p.IsLessThan(r.End)
}

// ContainsRange reports whether o lies within r, endpoints included, so a
// range contains itself.
func (r Range) ContainsRange(o Range) bool {
	return r.Start.IsLessOrEqual(o.Start) && o.End.IsLessOrEqual(r.End)
}

// Intersects reports whether r and o share any buffer position.
func (r Range) Intersects(o Range) bool {
	return r.Start.IsLessThan(o.End) && o.Start.IsLessThan(r.End)
}

func (r Range) IsEmpty() bool { return !r.Start.IsLessThan(r.End) }

func pointFromTS(p sitter.Point) Point {
	return Point{Row: int(p.Row), Column: int(p.Column)}
}

func (p Point) toTS() sitter.Point {
	return sitter.Point{Row: uint32(p.Row), Column: uint32(p.Column)}
}
