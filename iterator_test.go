package langmode_test

import (
	"testing"

	"langmode"
)

func TestHighlightIteratorSeekMidBufferOpensAncestorScopes(t *testing.T) {
	mode, _ := newGoMode(t, sampleGoSource)

	it := mode.BuildHighlightIterator()
	// Seek starting partway through the greet function body; the
	// surrounding source.go scope should already be open.
	it.Seek(langmode.Point{Row: 6, Column: 0}, 8)

	initial := it.InitialOpenScopeIds()
	found := false
	for _, id := range initial {
		if mode.ScopeNameForScopeId(id) == "source.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected source.go among initially open scopes, got %v", namesFor(mode, initial))
	}
}

func namesFor(mode *langmode.LanguageMode, ids []int) []string {
	var out []string
	for _, id := range ids {
		out = append(out, mode.ScopeNameForScopeId(id))
	}
	return out
}

func TestHighlightIteratorDoneAtEmptyRange(t *testing.T) {
	mode, buf := newGoMode(t, sampleGoSource)
	lastRow := buf.GetRange().End.Row

	it := mode.BuildHighlightIterator()
	it.Seek(langmode.Point{Row: lastRow + 5, Column: 0}, lastRow+6)
	if !it.Done() {
		t.Error("expected an out-of-range seek to produce a done iterator")
	}
}

func TestHighlightIteratorMoveToSuccessorEventuallyDone(t *testing.T) {
	mode, buf := newGoMode(t, sampleGoSource)
	lastRow := buf.GetRange().End.Row

	it := mode.BuildHighlightIterator()
	it.Seek(langmode.Point{Row: 0, Column: 0}, lastRow)

	guard := 0
	for !it.Done() {
		guard++
		if guard > 10000 {
			t.Fatal("iterator did not terminate")
		}
		if !it.MoveToSuccessor() {
			break
		}
	}
	if !it.Done() {
		t.Error("expected iterator to report done once every layer is exhausted")
	}
}

func TestHighlightIteratorPositionIsMonotonicAcrossInjectedLayers(t *testing.T) {
	mode, buf := newGoMode(t, injectionSource)
	lastRow := buf.GetRange().End.Row

	it := mode.BuildHighlightIterator()
	it.Seek(langmode.Point{Row: 0, Column: 0}, lastRow)

	prev := it.GetPosition()
	guard := 0
	for !it.Done() {
		guard++
		if guard > 10000 {
			t.Fatal("iterator did not terminate")
		}
		if !it.MoveToSuccessor() {
			break
		}
		if it.Done() {
			break
		}
		pos := it.GetPosition()
		if langmode.ComparePoints(pos, prev) < 0 {
			t.Fatalf("position went backwards: %+v then %+v", prev, pos)
		}
		prev = pos
	}
}
