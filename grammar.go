package langmode

import sitter "github.com/smacker/go-tree-sitter"

// QueryKind names one of the four query slots a grammar may carry.
type QueryKind int

const (
	QuerySyntax QueryKind = iota
	QueryFolds
	QueryIndents
	QueryLocals
)

// Capture is a single (name, node) binding produced by running a compiled
// query over a tree, optionally carrying a property bag set by `#set!`
// predicates in the query source.
type Capture struct {
	Name           string
	Node           *sitter.Node
	SetProperties  map[string]string
	PatternIndex   int
	QuantifierHint int
}

// InjectionPoint is a grammar rule of the form "nodes of type Type may
// introduce an injection of language Language(node) over content
// Content(node)". It is the Go-idiomatic stand-in for the dynamically
// dispatched { type, language, content } descriptor in §3: a small
// capability struct instead of a tagged closure bag.
type InjectionPoint struct {
	Type                 string
	Language             func(node *sitter.Node, source []byte) string
	Content              func(node *sitter.Node) []*sitter.Node
	NewlinesBetween      bool
	IncludeChildren      bool
	CoverShallowerScopes bool
}

// CommentStrings is the grammar-declared comment delimiter pair;
// commentStringsForPosition prefers it and consults configuration only
// when no covering grammar declares one.
type CommentStrings struct {
	Start string
	End   string
}

// Grammar is the external grammar-registry collaborator described in §3/§6:
// a language binary plus whichever queries the author shipped. Any
// non-syntax query may be nil; the layer degrades gracefully per §4.1/§7.
type Grammar interface {
	ScopeName() string
	LanguageID() string
	Language() (*sitter.Language, error)
	InjectionPoints() []InjectionPoint
	CommentStrings() CommentStrings

	// LoadQuery compiles and returns the query source for the given kind,
	// or (nil, nil) if the grammar does not ship one. A non-nil error is
	// a query *load* failure per §7 and is logged by the caller, not
	// propagated.
	LoadQuery(kind QueryKind) (*sitter.Query, error)
}

// runQuery runs query over [from, to) of root and streams captures in match
// order, attaching any #set! property bag recorded for the pattern and
// dropping matches rejected by #eq?/#not-eq? predicates. Other predicates,
// #match? included, are not evaluated.
func runQuery(query *sitter.Query, root *sitter.Node, from, to Point, source []byte) []Capture {
	if query == nil || root == nil {
		return nil
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.SetPointRange(from.toTS(), to.toTS())
	cursor.Exec(query, root)

	var out []Capture
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		pred := decodePredicates(query, match.PatternIndex)
		if !pred.accepts(match, query, source) {
			continue
		}
		for _, c := range match.Captures {
			out = append(out, Capture{
				Name:          query.CaptureNameForId(c.Index),
				Node:          c.Node,
				SetProperties: pred.properties,
				PatternIndex:  int(match.PatternIndex),
			})
		}
	}
	return out
}

// patternPredicates holds the decoded #set!/#eq?/#not-eq? clauses for one
// query pattern; #match? and other predicates are not decoded. Query predicate decoding is the one place this package
// reaches below the query compiler: the engine hands back raw predicate
// steps (capture/string tokens terminated by a "done" marker) and it is up
// to the caller to interpret the clause name, exactly as tree-sitter's own
// query-exec helpers do in every language binding.
type patternPredicates struct {
	properties map[string]string
	eqChecks   []eqCheck
}

type eqCheck struct {
	captureName string
	literal     string
	negate      bool
}

func decodePredicates(query *sitter.Query, patternIndex uint32) patternPredicates {
	var result patternPredicates
	steps := query.PredicatesForPattern(patternIndex)

	clauseStart := 0
	for i, step := range steps {
		if step.Type != sitter.QueryPredicateStepTypeDone {
			continue
		}
		clause := steps[clauseStart:i]
		clauseStart = i + 1
		if len(clause) == 0 || clause[0].Type != sitter.QueryPredicateStepTypeString {
			continue
		}
		name := query.StringValueForId(clause[0].ValueId)
		switch name {
		case "set!":
			if len(clause) < 2 {
				continue
			}
			key := stepText(query, clause[1])
			value := ""
			if len(clause) >= 3 {
				value = stepText(query, clause[2])
			}
			if result.properties == nil {
				result.properties = make(map[string]string)
			}
			result.properties[key] = value
		case "eq?", "not-eq?":
			if len(clause) < 3 || clause[1].Type != sitter.QueryPredicateStepTypeCapture {
				continue
			}
			result.eqChecks = append(result.eqChecks, eqCheck{
				captureName: query.CaptureNameForId(clause[1].ValueId),
				literal:     stepText(query, clause[2]),
				negate:      name == "not-eq?",
			})
		}
	}
	return result
}

func stepText(query *sitter.Query, step sitter.QueryPredicateStep) string {
	switch step.Type {
	case sitter.QueryPredicateStepTypeString:
		return query.StringValueForId(step.ValueId)
	case sitter.QueryPredicateStepTypeCapture:
		return query.CaptureNameForId(step.ValueId)
	default:
		return ""
	}
}

func (p patternPredicates) accepts(match *sitter.QueryMatch, query *sitter.Query, source []byte) bool {
	for _, check := range p.eqChecks {
		var text string
		found := false
		for _, c := range match.Captures {
			if query.CaptureNameForId(c.Index) == check.captureName {
				text = c.Node.Content(source)
				found = true
				break
			}
		}
		if !found {
			continue
		}
		equal := text == check.literal
		if check.negate {
			equal = !equal
		}
		if !equal {
			return false
		}
	}
	return true
}
