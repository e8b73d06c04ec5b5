package candidate

import (
	"testing"
)

func TestFilterCandidatesPrefersMatchingCase(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, File: "a.go", Text: "func myFunc() {}", Key: "myFunc"},
		{ID: 2, File: "b.go", Text: "func MyFunc() {}", Key: "MyFunc"},
	}

	res := FilterCandidates(candidates, "MyF")
	if len(res) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(res))
	}
	if got := candidates[int(res[0].Index)].Key; got != "MyFunc" {
		t.Fatalf("expected MyFunc first for mixed-case query, got %s", got)
	}

	res = FilterCandidates(candidates, "myf")
	if len(res) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(res))
	}
	if got := candidates[int(res[0].Index)].Key; got != "myFunc" {
		t.Fatalf("expected myFunc first for lowercase query, got %s", got)
	}
}

func TestFilterCandidatesEmptyQueryOrdersBySemanticScore(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, File: "a.go", Text: "x := 1", Key: "x"},
		{ID: 2, File: "a.go", Text: "type Server struct{}", Key: "Server"},
		{ID: 3, File: "a.go", Text: "param count int", Key: "count"},
		{ID: 4, File: "a.go", Text: "func Run() {}", Key: "Run"},
	}

	res := FilterCandidates(candidates, "")
	if len(res) != len(candidates) {
		t.Fatalf("expected every candidate back for an empty query, got %d", len(res))
	}
	if got := candidates[int(res[0].Index)].Key; got != "Server" {
		t.Fatalf("expected the type declaration first, got %s", got)
	}
	if got := candidates[int(res[1].Index)].Key; got != "Run" {
		t.Fatalf("expected the function declaration second, got %s", got)
	}
}

func TestFilterCandidatesPrefersHigherSemanticScoreOnTie(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, File: "a.go", Text: "handler := 1", Key: "handler"},
		{ID: 2, File: "b.go", Text: "func handler() {}", Key: "handler"},
	}

	res := FilterCandidates(candidates, "handler")
	if len(res) != 2 {
		t.Fatalf("expected both candidates to match, got %d", len(res))
	}
	if got := candidates[int(res[0].Index)].File; got != "b.go" {
		t.Fatalf("expected the func declaration to outrank the local var, got %s first", got)
	}
}

func TestFilterCandidatesWithQueryRunesMatchesFilterCandidates(t *testing.T) {
	candidates := makeFixtureCandidates(500)
	qRaw := TrimRunes("handler")
	qLower := LowerRunes(qRaw)

	viaRunes := FilterCandidatesWithQueryRunes(candidates, qRaw, qLower)
	viaString := FilterCandidates(candidates, "handler")

	if len(viaRunes) != len(viaString) || len(viaRunes) == 0 {
		t.Fatalf("expected matching non-empty results, got %d and %d", len(viaRunes), len(viaString))
	}
	for i := range viaRunes {
		if viaRunes[i] != viaString[i] {
			t.Fatalf("result %d differs: %+v vs %+v", i, viaRunes[i], viaString[i])
		}
	}
}
