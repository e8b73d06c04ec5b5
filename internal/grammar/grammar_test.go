package grammar

import (
	"testing"

	"langmode"
)

func TestRegistryLookupKnownTags(t *testing.T) {
	r := NewRegistry()
	tags := []Tag{Go, Rust, Python, JavaScript, TypeScript, TSX, YAML, TOML, JSON, Bash, C, CPP}
	for _, tag := range tags {
		g := r.Lookup(string(tag))
		if g == nil {
			t.Fatalf("expected grammar registered for tag %q", tag)
		}
		if g.LanguageID() != string(tag) {
			t.Errorf("tag %q: LanguageID() = %q", tag, g.LanguageID())
		}
	}
}

func TestRegistryLookupUnknownTag(t *testing.T) {
	r := NewRegistry()
	if g := r.Lookup("cobol"); g != nil {
		t.Fatalf("expected nil grammar for unregistered tag, got %v", g)
	}
}

func TestGrammarLanguageLoads(t *testing.T) {
	r := NewRegistry()
	g := r.Lookup(string(Go))
	lang, err := g.Language()
	if err != nil {
		t.Fatalf("Language() error: %v", err)
	}
	if lang == nil {
		t.Fatal("expected non-nil *sitter.Language for go")
	}
}

func TestGrammarLoadQueryCachesMissingQuery(t *testing.T) {
	r := NewRegistry()
	g := r.Lookup(string(JSON))
	// JSON ships no locals.scm; LoadQuery should return (nil, nil) both times,
	// exercising the cached-miss path.
	q1, err1 := g.LoadQuery(langmode.QueryLocals)
	if err1 != nil {
		t.Fatalf("expected no error for missing query, got %v", err1)
	}
	if q1 != nil {
		t.Fatalf("expected nil query, got %v", q1)
	}
	q2, err2 := g.LoadQuery(langmode.QueryLocals)
	if err2 != nil || q2 != nil {
		t.Fatalf("second LoadQuery call should also be (nil, nil), got (%v, %v)", q2, err2)
	}
}

func TestGrammarLoadQueryHighlights(t *testing.T) {
	r := NewRegistry()
	g := r.Lookup(string(Go))
	q, err := g.LoadQuery(langmode.QuerySyntax)
	if err != nil {
		t.Fatalf("LoadQuery(QuerySyntax) error: %v", err)
	}
	if q == nil {
		t.Fatal("expected go to ship a highlights query")
	}
}

func TestCommentStrings(t *testing.T) {
	r := NewRegistry()
	g := r.Lookup(string(Python))
	cs := g.CommentStrings()
	if cs.Start != "#" {
		t.Errorf("python comment start = %q, want #", cs.Start)
	}
}

func TestGoInjectionPointRegistered(t *testing.T) {
	r := NewRegistry()
	g := r.Lookup(string(Go))
	points := g.InjectionPoints()
	if len(points) != 1 {
		t.Fatalf("expected exactly one injection point on go, got %d", len(points))
	}
	if points[0].Type != "raw_string_literal" {
		t.Errorf("injection point type = %q, want raw_string_literal", points[0].Type)
	}
}

func TestOtherGrammarsHaveNoInjectionPoints(t *testing.T) {
	r := NewRegistry()
	g := r.Lookup(string(Python))
	if len(g.InjectionPoints()) != 0 {
		t.Fatal("python grammar should carry no injection points")
	}
}
