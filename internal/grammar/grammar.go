// Package grammar wires the smacker/go-tree-sitter language bundles used
// by langmode.Grammar into concrete implementations, with query sources
// shipped alongside the binary via go:embed.
package grammar

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	bashlang "github.com/smacker/go-tree-sitter/bash"
	clang "github.com/smacker/go-tree-sitter/c"
	cpplang "github.com/smacker/go-tree-sitter/cpp"
	golang "github.com/smacker/go-tree-sitter/golang"
	python "github.com/smacker/go-tree-sitter/python"
	rust "github.com/smacker/go-tree-sitter/rust"
	toml "github.com/smacker/go-tree-sitter/toml"
	tsxlang "github.com/smacker/go-tree-sitter/typescript/tsx"
	tslang "github.com/smacker/go-tree-sitter/typescript/typescript"
	yaml "github.com/smacker/go-tree-sitter/yaml"
	tsjson "github.com/tree-sitter/tree-sitter-json/bindings/go"

	"langmode"
)

//go:embed queries
var queryFS embed.FS

// Tag is the language-string vocabulary grammars are looked up by, the
// same strings an injection point's language() callback returns.
type Tag string

const (
	Go         Tag = "go"
	Rust       Tag = "rust"
	Python     Tag = "python"
	JavaScript Tag = "javascript"
	TypeScript Tag = "typescript"
	TSX        Tag = "tsx"
	YAML       Tag = "yaml"
	TOML       Tag = "toml"
	JSON       Tag = "json"
	Bash       Tag = "bash"
	C          Tag = "c"
	CPP        Tag = "cpp"
)

// queryDir maps a tag to its directory under queries/; several tags share
// a grammar instance (javascript and typescript both use the TypeScript
// parser, matching the teacher's own highlighter.go wiring) but still get
// their own query directory since their scope names differ.
var queryDir = map[Tag]string{
	Go: "go", Rust: "rust", Python: "python",
	JavaScript: "javascript", TypeScript: "typescript", TSX: "tsx",
	YAML: "yaml", TOML: "toml", JSON: "json",
	Bash: "bash", C: "c", CPP: "cpp",
}

type langBundle struct {
	language *sitter.Language
	loadErr  error
}

func loadBundle(tag Tag) langBundle {
	switch tag {
	case Go:
		return langBundle{language: golang.GetLanguage()}
	case Rust:
		return langBundle{language: rust.GetLanguage()}
	case Python:
		return langBundle{language: python.GetLanguage()}
	case JavaScript:
		return langBundle{language: tslang.GetLanguage()}
	case TypeScript:
		return langBundle{language: tslang.GetLanguage()}
	case TSX:
		return langBundle{language: tsxlang.GetLanguage()}
	case YAML:
		return langBundle{language: yaml.GetLanguage()}
	case TOML:
		return langBundle{language: toml.GetLanguage()}
	case JSON:
		return langBundle{language: sitter.NewLanguage(tsjson.Language())}
	case Bash:
		return langBundle{language: bashlang.GetLanguage()}
	case C:
		return langBundle{language: clang.GetLanguage()}
	case CPP:
		return langBundle{language: cpplang.GetLanguage()}
	default:
		return langBundle{loadErr: fmt.Errorf("grammar: unknown language tag %q", tag)}
	}
}

// Grammar is the concrete langmode.Grammar backed by one smacker language
// bundle and this package's embedded query files.
type Grammar struct {
	tag         Tag
	scopeName   string
	commentStr  langmode.CommentStrings
	injections  []langmode.InjectionPoint
	once        sync.Once
	bundle      langBundle
	queryCache  map[langmode.QueryKind]*sitter.Query
	queryErrors map[langmode.QueryKind]error
	mu          sync.Mutex
}

// New builds the Grammar for tag. scopeName defaults to "source.<tag>"
// when empty.
func New(tag Tag, scopeName string, commentStrings langmode.CommentStrings) *Grammar {
	if scopeName == "" {
		scopeName = "source." + string(tag)
	}
	return &Grammar{
		tag:         tag,
		scopeName:   scopeName,
		commentStr:  commentStrings,
		queryCache:  make(map[langmode.QueryKind]*sitter.Query),
		queryErrors: make(map[langmode.QueryKind]error),
	}
}

func (g *Grammar) ScopeName() string { return g.scopeName }
func (g *Grammar) LanguageID() string { return string(g.tag) }

func (g *Grammar) Language() (*sitter.Language, error) {
	g.once.Do(func() { g.bundle = loadBundle(g.tag) })
	return g.bundle.language, g.bundle.loadErr
}

func (g *Grammar) CommentStrings() langmode.CommentStrings { return g.commentStr }

func (g *Grammar) InjectionPoints() []langmode.InjectionPoint { return g.injections }

// SetInjectionPoints lets the registry attach injection rules after
// construction, since a point's child-language set depends on which
// other grammars are registered alongside this one.
func (g *Grammar) SetInjectionPoints(points []langmode.InjectionPoint) {
	g.injections = points
}

func queryFileName(kind langmode.QueryKind) string {
	switch kind {
	case langmode.QuerySyntax:
		return "highlights.scm"
	case langmode.QueryFolds:
		return "folds.scm"
	case langmode.QueryIndents:
		return "indents.scm"
	case langmode.QueryLocals:
		return "locals.scm"
	default:
		return ""
	}
}

// LoadQuery implements langmode.Grammar: it loads and compiles the
// embedded query source for kind, caching both successes and failures (a
// missing file is a normal, silent absence per §7, not an error).
func (g *Grammar) LoadQuery(kind langmode.QueryKind) (*sitter.Query, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if q, ok := g.queryCache[kind]; ok {
		return q, nil
	}
	if err, ok := g.queryErrors[kind]; ok {
		return nil, err
	}

	name := queryFileName(kind)
	if name == "" {
		return nil, nil
	}
	path := "queries/" + queryDir[g.tag] + "/" + name
	src, err := fs.ReadFile(queryFS, path)
	if err != nil {
		g.queryErrors[kind] = nil
		return nil, nil // no query of this kind for this grammar; not an error
	}

	language, err := g.Language()
	if err != nil || language == nil {
		g.queryErrors[kind] = err
		return nil, err
	}

	q, err := sitter.NewQuery(src, language)
	if err != nil {
		g.queryErrors[kind] = fmt.Errorf("grammar %s: compiling %s: %w", g.scopeName, path, err)
		return nil, g.queryErrors[kind]
	}
	g.queryCache[kind] = q
	return q, nil
}

// Registry is the concrete langmode.GrammarRegistry: a fixed set of
// grammars keyed by language tag, with the Go grammar configured to
// inject other registered grammars into magic-comment-tagged raw string
// literals (see NewRegistry).
type Registry struct {
	byTag map[Tag]*Grammar
}

// NewRegistry builds every known grammar and wires the Go grammar's
// "//lang:<tag>" raw-string injection rule against the full set, so any
// registered grammar can be embedded inside a Go raw string literal
// immediately preceded by that marker comment.
func NewRegistry() *Registry {
	r := &Registry{byTag: make(map[Tag]*Grammar)}

	shSlash := langmode.CommentStrings{Start: "//"}
	shHash := langmode.CommentStrings{Start: "#"}
	cStyle := langmode.CommentStrings{Start: "/*", End: "*/"}

	r.byTag[Go] = New(Go, "source.go", shSlash)
	r.byTag[Rust] = New(Rust, "source.rust", shSlash)
	r.byTag[Python] = New(Python, "source.python", shHash)
	r.byTag[JavaScript] = New(JavaScript, "source.js", shSlash)
	r.byTag[TypeScript] = New(TypeScript, "source.ts", shSlash)
	r.byTag[TSX] = New(TSX, "source.tsx", shSlash)
	r.byTag[YAML] = New(YAML, "source.yaml", shHash)
	r.byTag[TOML] = New(TOML, "source.toml", shHash)
	r.byTag[JSON] = New(JSON, "source.json", langmode.CommentStrings{})
	r.byTag[Bash] = New(Bash, "source.shell", shHash)
	r.byTag[C] = New(C, "source.c", cStyle)
	r.byTag[CPP] = New(CPP, "source.cpp", shSlash)

	r.byTag[Go].SetInjectionPoints([]langmode.InjectionPoint{goRawStringInjectionPoint(r)})
	r.byTag[JSON].SetInjectionPoints([]langmode.InjectionPoint{jsonScriptInjectionPoint(r)})

	return r
}

// Lookup implements langmode.GrammarRegistry.
func (r *Registry) Lookup(tag string) langmode.Grammar {
	g, ok := r.byTag[Tag(tag)]
	if !ok {
		return nil
	}
	return g
}

const langMarkerPrefix = "//lang:"

// goRawStringInjectionPoint builds the injection rule that embeds a
// registered grammar into a Go raw string literal marked by an immediately
// preceding "//lang:<tag>" line comment, e.g.:
//
//	//lang:json
//	const payload = `{"name": "value"}`
//
// A tag with no registered grammar injects nothing. This is the Go-side
// entry point for multi-language layering; jsonScriptInjectionPoint adds a
// second level inside an injected JSON payload.
func goRawStringInjectionPoint(r *Registry) langmode.InjectionPoint {
	return langmode.InjectionPoint{
		Type: "raw_string_literal",
		Language: func(node *sitter.Node, source []byte) string {
			prev := node.PrevSibling()
			if prev == nil || prev.Type() != "comment" {
				return ""
			}
			text := strings.TrimSpace(prev.Content(source))
			if !strings.HasPrefix(text, langMarkerPrefix) {
				return ""
			}
			tag := strings.TrimSpace(strings.TrimPrefix(text, langMarkerPrefix))
			if r.Lookup(tag) == nil {
				return ""
			}
			return tag
		},
		Content: func(node *sitter.Node) []*sitter.Node {
			return []*sitter.Node{node}
		},
		IncludeChildren:      true,
		NewlinesBetween:      false,
		CoverShallowerScopes: true,
	}
}

// jsonScriptInjectionPoint embeds Bash into a JSON string value keyed
// "script", e.g. a package-manifest-style run step:
//
//	{"script": "echo building && go build ./..."}
//
// Unlike goRawStringInjectionPoint this one fires on a grammar that is
// itself frequently an injected layer (a JSON payload embedded in a Go raw
// string, say), so it's this module's exercised case of a nested injection
// two levels deep.
func jsonScriptInjectionPoint(r *Registry) langmode.InjectionPoint {
	return langmode.InjectionPoint{
		Type: "pair",
		Language: func(node *sitter.Node, source []byte) string {
			key := node.ChildByFieldName("key")
			value := node.ChildByFieldName("value")
			if key == nil || value == nil || value.Type() != "string" {
				return ""
			}
			if strings.Trim(key.Content(source), `"`) != "script" {
				return ""
			}
			if r.Lookup(string(Bash)) == nil {
				return ""
			}
			return string(Bash)
		},
		Content: func(node *sitter.Node) []*sitter.Node {
			return []*sitter.Node{node.ChildByFieldName("value")}
		},
		IncludeChildren:      true,
		NewlinesBetween:      false,
		CoverShallowerScopes: true,
	}
}
