package candidate

import "langmode/internal/lang"

type LangID = lang.ID

const (
	LangPlain      LangID = lang.Plain
	LangGo         LangID = lang.Go
	LangRust       LangID = lang.Rust
	LangPython     LangID = lang.Python
	LangJavaScript LangID = lang.JavaScript
	LangTypeScript LangID = lang.TypeScript
	LangTSX        LangID = lang.TSX
	LangYAML       LangID = lang.YAML
	LangTOML       LangID = lang.TOML
	LangJSON       LangID = lang.JSON
	LangBash       LangID = lang.Bash
	LangC          LangID = lang.C
	LangCPP        LangID = lang.CPP
)

type Candidate struct {
	ID            int
	File          string
	Line          int
	Col           int
	Text          string
	Key           string
	LangID        LangID
	SemanticScore int16
}

type FilteredCandidate struct {
	Index    int32
	Score    int32
	OpenLine int32
	OpenCol  int32
}
