package langmode_test

import (
	"testing"

	"langmode"
)

const injectionSource = "package sample\n\n" +
	"//lang:json\n" +
	"const payload = `{\"name\": \"value\"}`\n"

func TestInjectedLayerHighlightsChildLanguage(t *testing.T) {
	mode, buf := newGoMode(t, injectionSource)
	lastRow := buf.GetRange().End.Row

	it := mode.BuildHighlightIterator()
	it.Seek(langmode.Point{Row: 0, Column: 0}, lastRow)

	sawJSONScope := false
	for !it.Done() {
		for _, id := range it.GetOpenScopeIds() {
			if mode.ScopeNameForScopeId(id) == "source.json" {
				sawJSONScope = true
			}
		}
		if !it.MoveToSuccessor() {
			break
		}
	}
	if !sawJSONScope {
		t.Error("expected the //lang:json raw string to open a source.json injection scope")
	}
}

const nestedInjectionSource = "package sample\n\n" +
	"//lang:json\n" +
	"const payload = `{\"script\": \"echo hi\"}`\n"

// TestNestedInjectionHighlightsGrandchildLanguage exercises a second-level
// injection (Go raw string -> JSON -> Bash "script" value): the Bash
// layer's NodeRangeSet has a non-nil previous (the JSON layer's own range
// set), the code path injection_test.go's single-level fixture above never
// reaches.
func TestNestedInjectionHighlightsGrandchildLanguage(t *testing.T) {
	mode, buf := newGoMode(t, nestedInjectionSource)
	lastRow := buf.GetRange().End.Row

	it := mode.BuildHighlightIterator()
	it.Seek(langmode.Point{Row: 0, Column: 0}, lastRow)

	sawJSONScope := false
	sawBashScope := false
	for !it.Done() {
		for _, id := range it.GetOpenScopeIds() {
			switch mode.ScopeNameForScopeId(id) {
			case "source.json":
				sawJSONScope = true
			case "source.shell":
				sawBashScope = true
			}
		}
		if !it.MoveToSuccessor() {
			break
		}
	}
	if !sawJSONScope {
		t.Error("expected the //lang:json raw string to still open a source.json injection scope")
	}
	if !sawBashScope {
		t.Error("expected the \"script\" value to open a nested source.shell injection scope")
	}
}

func TestScopeDescriptorIncludesInjectedLanguage(t *testing.T) {
	mode, buf := newGoMode(t, injectionSource)
	line := buf.LineForRow(3)
	col := 20 // inside the backtick-quoted JSON payload
	if col >= len(line) {
		t.Fatal("test fixture changed: injected JSON line too short")
	}
	descriptor := mode.ScopeDescriptorForPosition(langmode.Point{Row: 3, Column: col})
	found := false
	for _, d := range descriptor {
		if d == "source.json" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected source.json in scope descriptor inside the injected payload, got %v", descriptor)
	}
}
