package langmode

import "testing"

func TestComparePoints(t *testing.T) {
	cases := []struct {
		a, b Point
		want int
	}{
		{Point{0, 0}, Point{0, 0}, 0},
		{Point{0, 1}, Point{0, 2}, -1},
		{Point{0, 2}, Point{0, 1}, 1},
		{Point{1, 0}, Point{0, 99}, 1},
		{Point{0, 99}, Point{1, 0}, -1},
	}
	for _, c := range cases {
		if got := ComparePoints(c.a, c.b); got != c.want {
			t.Errorf("ComparePoints(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestPointIsLessThan(t *testing.T) {
	if !(Point{0, 0}).IsLessThan(Point{0, 1}) {
		t.Fatal("expected (0,0) < (0,1)")
	}
	if (Point{0, 1}).IsLessThan(Point{0, 1}) {
		t.Fatal("expected (0,1) not < (0,1)")
	}
	if !(Point{0, 1}).IsLessOrEqual(Point{0, 1}) {
		t.Fatal("expected (0,1) <= (0,1)")
	}
}

func TestRangeContainsPoint(t *testing.T) {
	r := Range{Start: Point{0, 2}, End: Point{0, 5}}
	if !r.ContainsPoint(Point{0, 2}) {
		t.Error("expected range to contain its start point")
	}
	if r.ContainsPoint(Point{0, 5}) {
		t.Error("range is half-open, should not contain its end point")
	}
	if !r.ContainsPoint(Point{0, 3}) {
		t.Error("expected range to contain an interior point")
	}
	if r.ContainsPoint(Point{0, 1}) {
		t.Error("range should not contain a point before it")
	}
}

func TestRangeContainsRange(t *testing.T) {
	outer := Range{Start: Point{0, 0}, End: Point{5, 0}}
	inner := Range{Start: Point{1, 0}, End: Point{2, 0}}
	if !outer.ContainsRange(inner) {
		t.Error("expected outer to contain inner")
	}
	if inner.ContainsRange(outer) {
		t.Error("inner should not contain outer")
	}
	if !outer.ContainsRange(outer) {
		t.Error("a range should contain itself")
	}
}

func TestRangeIntersects(t *testing.T) {
	a := Range{Start: Point{0, 0}, End: Point{0, 10}}
	b := Range{Start: Point{0, 5}, End: Point{0, 15}}
	c := Range{Start: Point{0, 10}, End: Point{0, 20}}
	if !a.Intersects(b) {
		t.Error("expected overlapping ranges to intersect")
	}
	if a.Intersects(c) {
		t.Error("adjacent half-open ranges should not intersect")
	}
}

func TestRangeIsEmpty(t *testing.T) {
	if !(Range{Start: Point{1, 1}, End: Point{1, 1}}).IsEmpty() {
		t.Error("expected zero-width range to be empty")
	}
	if (Range{Start: Point{1, 1}, End: Point{1, 2}}).IsEmpty() {
		t.Error("expected non-zero-width range to be non-empty")
	}
}
