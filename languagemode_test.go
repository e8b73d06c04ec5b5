package langmode_test

import (
	"strings"
	"testing"

	"langmode"
	"langmode/internal/grammar"
	"langmode/internal/textbuffer"
)

const sampleGoSource = `package sample

import "fmt"

// greet prints a friendly message.
func greet(name string) {
	message := "hello, " + name
	fmt.Println(message)
}

func main() {
	greet("world")
}
`

func newGoMode(t *testing.T, source string) (*langmode.LanguageMode, *textbuffer.Buffer) {
	t.Helper()
	registry := grammar.NewRegistry()
	g := registry.Lookup(string(grammar.Go))
	if g == nil {
		t.Fatal("expected go grammar to be registered")
	}
	buf := textbuffer.New(source)
	mode := langmode.NewLanguageMode(buf, g, registry, nil)

	tx := langmode.BufferTransaction{Changes: []langmode.BufferChange{{
		OldRange: langmode.Range{},
		NewRange: buf.GetRange(),
		OldText:  "",
		NewText:  source,
	}}}
	if err := mode.BufferDidFinishTransaction(tx); err != nil {
		t.Fatalf("initial parse failed: %v", err)
	}
	return mode, buf
}

func TestScopeDescriptorForPosition(t *testing.T) {
	mode, _ := newGoMode(t, sampleGoSource)
	// "func" keyword on the greet declaration line (row 5, 0-indexed).
	descriptor := mode.ScopeDescriptorForPosition(langmode.Point{Row: 5, Column: 1})
	if len(descriptor) == 0 {
		t.Fatal("expected a non-empty scope descriptor")
	}
	if descriptor[0] != "source.go" {
		t.Errorf("expected outermost scope to be source.go, got %q", descriptor[0])
	}
}

func TestHighlightIteratorCoversWholeBuffer(t *testing.T) {
	mode, buf := newGoMode(t, sampleGoSource)
	lastRow := buf.GetRange().End.Row

	it := mode.BuildHighlightIterator()
	it.Seek(langmode.Point{Row: 0, Column: 0}, lastRow)

	var openCount, closeCount int
	seenKeyword := false
	steps := 0
	for !it.Done() {
		for range it.GetOpenScopeIds() {
			openCount++
		}
		for range it.GetCloseScopeIds() {
			closeCount++
		}
		for _, id := range it.GetOpenScopeIds() {
			if mode.ScopeNameForScopeId(id) == "keyword" {
				seenKeyword = true
			}
		}
		steps++
		if !it.MoveToSuccessor() {
			break
		}
	}
	if steps == 0 {
		t.Fatal("expected at least one boundary event across the sample source")
	}
	if !seenKeyword {
		t.Error("expected at least one \"keyword\" scope to open over the sample source")
	}
	if openCount == 0 || closeCount == 0 {
		t.Errorf("expected both opens and closes, got open=%d close=%d", openCount, closeCount)
	}
}

func TestIsFoldableAtFunctionDeclarationRow(t *testing.T) {
	mode, _ := newGoMode(t, sampleGoSource)
	// row 5 is "func greet(name string) {"
	if !mode.IsFoldableAtRow(5) {
		t.Error("expected the greet function body to be foldable at its opening row")
	}
	if mode.IsFoldableAtRow(0) {
		t.Error("the package clause row should not be foldable")
	}
}

func TestGetFoldableRangeContainingPoint(t *testing.T) {
	mode, _ := newGoMode(t, sampleGoSource)
	fold, ok := mode.GetFoldableRangeContainingPoint(langmode.Point{Row: 5, Column: 0})
	if !ok {
		t.Fatal("expected a fold starting at the greet function row")
	}
	if fold.Start.Row != 5 {
		t.Errorf("fold.Start.Row = %d, want 5", fold.Start.Row)
	}
	if fold.End.Row <= fold.Start.Row {
		t.Errorf("expected a multi-row fold, got %+v", fold)
	}
}

func TestSuggestedIndentAfterOpenBrace(t *testing.T) {
	mode, _ := newGoMode(t, sampleGoSource)
	// row 6 is the line right after "func greet(name string) {"
	indent := mode.SuggestedIndentForBufferRow(6, 4, langmode.DefaultIndentOptions())
	if indent <= 0 {
		t.Errorf("expected positive suggested indent inside a function body, got %v", indent)
	}
}

func TestFindDefinitionAtPosition(t *testing.T) {
	mode, buf := newGoMode(t, sampleGoSource)
	line := buf.LineForRow(7) // fmt.Println(message)
	col := strings.Index(line, "message")
	if col < 0 {
		t.Fatal("test fixture changed: could not find \"message\" reference")
	}
	pos, ok := mode.FindDefinitionAtPosition(langmode.Point{Row: 7, Column: col + 1})
	if !ok {
		t.Fatal("expected to resolve a definition for the \"message\" reference")
	}
	if pos.Row != 6 {
		t.Errorf("expected message's definition on row 6, got row %d", pos.Row)
	}
}

func TestListLocalDefinitions(t *testing.T) {
	mode, _ := newGoMode(t, sampleGoSource)
	defs := mode.ListLocalDefinitions()
	if len(defs) == 0 {
		t.Fatal("expected at least one local definition")
	}
	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
	}
	found := false
	for _, n := range names {
		if n == "message" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected \"message\" among local definitions, got %v", names)
	}
}

func TestBufferDidChangeThenFinishTransactionReparses(t *testing.T) {
	mode, buf := newGoMode(t, sampleGoSource)
	change := buf.ApplyEdit(langmode.Range{Start: langmode.Point{Row: 11, Column: 7}, End: langmode.Point{Row: 11, Column: 14}}, `"there"`)
	mode.BufferDidChange(change)

	tx := langmode.BufferTransaction{Changes: []langmode.BufferChange{change}}
	if err := mode.BufferDidFinishTransaction(tx); err != nil {
		t.Fatalf("reparse after edit failed: %v", err)
	}
	if !strings.Contains(buf.GetText(), `"there"`) {
		t.Fatal("expected buffer text to reflect the edit")
	}
}

func TestGetOrCreateScopeIDIsStable(t *testing.T) {
	mode, _ := newGoMode(t, sampleGoSource)
	first := mode.GetOrCreateScopeID("keyword")
	second := mode.GetOrCreateScopeID("keyword")
	if first != second {
		t.Errorf("expected the same scope id on repeated interning, got %d and %d", first, second)
	}
	if mode.ScopeNameForScopeId(first) != "keyword" {
		t.Errorf("expected scope name round-trip, got %q", mode.ScopeNameForScopeId(first))
	}
}
