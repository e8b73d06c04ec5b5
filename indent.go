package langmode

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// IndentOptions tunes SuggestedIndentForBufferRow per §4.7.
type IndentOptions struct {
	SkipBlankLines  bool
	SkipDedentCheck bool
}

// DefaultIndentOptions matches the spec's stated defaults.
func DefaultIndentOptions() IndentOptions {
	return IndentOptions{SkipBlankLines: true}
}

// deepestIndentLayer returns the deepest layer covering point that has a
// loaded indentsQuery, along with that query.
func (m *LanguageMode) deepestIndentLayer(point Point) (*LanguageLayer, *sitter.Query) {
	layers := m.layersCoveringPoint(point)
	for i := len(layers) - 1; i >= 0; i-- {
		q, _ := layers[i].getQuery(QueryIndents)
		if q != nil {
			return layers[i], q
		}
	}
	return nil, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SuggestedIndentForBufferRow implements §4.7.
func (m *LanguageMode) SuggestedIndentForBufferRow(row, tabLength int, opts IndentOptions) float64 {
	if row <= 0 {
		return 0
	}

	comparisonRow := row - 1
	if opts.SkipBlankLines {
		for comparisonRow > 0 && m.buffer.IsRowBlank(comparisonRow) {
			comparisonRow--
		}
	}
	lastLineIndent := indentLevelForLine(m.buffer.LineForRow(comparisonRow), tabLength)

	lineLen := m.buffer.LineLengthForRow(comparisonRow)
	layer, query := m.deepestIndentLayer(Point{Row: comparisonRow, Column: lineLen})
	if layer == nil || query == nil {
		return lastLineIndent
	}

	layer.ForceAnonymousParse()
	if layer.tree == nil {
		return lastLineIndent
	}

	source := []byte(m.buffer.GetText())
	from := Point{Row: comparisonRow, Column: 0}
	to := Point{Row: row, Column: 0}
	captures := runQuery(query, layer.tree.RootNode(), from, to, source)

	indentDelta := 0
	seenIndent := false
	for _, c := range captures {
		nodeEnd := pointFromTS(c.Node.EndPoint())
		if nodeEnd.Row < comparisonRow {
			continue
		}
		empty := c.Node.StartByte() == c.Node.EndByte()
		switch c.Name {
		case "indent":
			if !empty {
				indentDelta++
				seenIndent = true
			}
		case "indent_end":
			if !empty && seenIndent {
				indentDelta--
			}
		}
	}
	indentDelta = clamp(indentDelta, 0, 1)

	dedentDelta := 0
	if !opts.SkipDedentCheck {
		trimmed := strings.TrimLeft(m.buffer.LineForRow(row), " \t")
		rowCaptures := runQuery(query, layer.tree.RootNode(), Point{Row: row, Column: 0}, Point{Row: row + 1, Column: 0}, source)
		seen := make(map[[2]int]bool)
		for _, c := range rowCaptures {
			if c.Name != "indent_end" && c.Name != "branch" {
				continue
			}
			text := c.Node.Content(source)
			if !strings.HasPrefix(trimmed, text) {
				continue
			}
			key := [2]int{int(c.Node.StartByte()), int(c.Node.EndByte())}
			if seen[key] {
				continue
			}
			seen[key] = true
			dedentDelta--
		}
		dedentDelta = clamp(dedentDelta, -1, 0)
	}

	return lastLineIndent + float64(indentDelta) + float64(dedentDelta)
}

// SuggestedIndentForEditedBufferRow implements §4.7.
func (m *LanguageMode) SuggestedIndentForEditedBufferRow(row, tabLength int) float64 {
	baseline := m.SuggestedIndentForBufferRow(row, tabLength, IndentOptions{SkipBlankLines: true, SkipDedentCheck: true})

	layer, query := m.deepestIndentLayer(Point{Row: row, Column: m.buffer.LineLengthForRow(row)})
	if layer == nil || query == nil {
		return baseline
	}
	layer.ForceAnonymousParse()
	if layer.tree == nil {
		return baseline
	}

	source := []byte(m.buffer.GetText())
	trimmed := strings.TrimLeft(m.buffer.LineForRow(row), " \t")
	captures := runQuery(query, layer.tree.RootNode(), Point{Row: row, Column: 0}, Point{Row: row + 1, Column: 0}, source)
	for _, c := range captures {
		if c.Name != "branch" {
			continue
		}
		if int(c.Node.StartPoint().Row) != row {
			continue
		}
		if c.Node.Content(source) == trimmed {
			if baseline-1 < 0 {
				return 0
			}
			return baseline - 1
		}
	}
	return indentLevelForLine(m.buffer.LineForRow(row), tabLength)
}
