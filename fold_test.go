package langmode_test

import (
	"testing"

	"langmode"
	"langmode/internal/grammar"
	"langmode/internal/textbuffer"
)

const nestedFoldSource = `package sample

func outer() {
	for i := 0; i < 10; i++ {
		if i > 5 {
			println(i)
		}
	}
}
`

const dividedFoldCSource = "#if A\n a\n#else\n b\n#endif\n"

func newCMode(t *testing.T, source string) (*langmode.LanguageMode, *textbuffer.Buffer) {
	t.Helper()
	registry := grammar.NewRegistry()
	g := registry.Lookup(string(grammar.C))
	if g == nil {
		t.Fatal("expected c grammar to be registered")
	}
	buf := textbuffer.New(source)
	mode := langmode.NewLanguageMode(buf, g, registry, nil)

	tx := langmode.BufferTransaction{Changes: []langmode.BufferChange{{
		NewRange: buf.GetRange(),
		NewText:  source,
	}}}
	if err := mode.BufferDidFinishTransaction(tx); err != nil {
		t.Fatalf("initial parse failed: %v", err)
	}
	return mode, buf
}

func TestGetFoldableRangesDividedPreprocessorFold(t *testing.T) {
	mode, _ := newCMode(t, dividedFoldCSource)
	folds := mode.GetFoldableRanges()
	if len(folds) != 2 {
		t.Fatalf("expected the #if/#else/#endif block to resolve into exactly 2 divided folds, got %d: %+v", len(folds), folds)
	}

	want := []langmode.Fold{
		{Start: langmode.Point{Row: 0, Column: langmode.InfiniteColumn}, End: langmode.Point{Row: 1, Column: langmode.InfiniteColumn}},
		{Start: langmode.Point{Row: 2, Column: langmode.InfiniteColumn}, End: langmode.Point{Row: 3, Column: langmode.InfiniteColumn}},
	}
	for _, w := range want {
		found := false
		for _, f := range folds {
			if f == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected a divided fold %+v among %+v", w, folds)
		}
	}
}

func TestGetFoldableRangesFindsNestedFolds(t *testing.T) {
	mode, _ := newGoMode(t, nestedFoldSource)
	folds := mode.GetFoldableRanges()
	if len(folds) < 3 {
		t.Fatalf("expected at least 3 folds (func, for, if), got %d: %+v", len(folds), folds)
	}
}

func TestGetFoldableRangesAtIndentLevel(t *testing.T) {
	mode, _ := newGoMode(t, nestedFoldSource)

	top := mode.GetFoldableRangesAtIndentLevel(0)
	if len(top) != 1 {
		t.Fatalf("expected exactly one level-0 fold (the function body), got %d: %+v", len(top), top)
	}
	if top[0].Start.Row != 2 {
		t.Errorf("expected the level-0 fold to start at the func declaration row (2), got %d", top[0].Start.Row)
	}

	nested := mode.GetFoldableRangesAtIndentLevel(1)
	if len(nested) != 1 {
		t.Fatalf("expected exactly one level-1 fold (the for loop body), got %d: %+v", len(nested), nested)
	}
}

func TestIsFoldableAtRowCaches(t *testing.T) {
	mode, _ := newGoMode(t, nestedFoldSource)
	first := mode.IsFoldableAtRow(2)
	second := mode.IsFoldableAtRow(2)
	if first != second {
		t.Error("expected IsFoldableAtRow to be stable across repeated calls")
	}
	if !first {
		t.Error("expected the func outer() row to be foldable")
	}
}
