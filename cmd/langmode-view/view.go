package main

import (
	"fmt"
	"strings"

	"langmode"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.pickerOpen {
		return m.renderPicker()
	}

	header := m.renderHeader()
	body := m.renderBody(m.bodyHeight())
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m model) renderHeader() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Muted))
	descriptor := m.mode.ScopeDescriptorForPosition(langmode.Point{Row: m.cursorRow, Column: 0})
	line := fmt.Sprintf("%s  [%s]  %d:1  %s", m.cfg.File, m.tag, m.cursorRow+1, strings.Join(descriptor, " "))
	return style.Render(truncateText(line, m.width))
}

func (m model) renderFooter() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Muted))
	indent := m.mode.SuggestedIndentForBufferRow(m.cursorRow, m.cfg.TabLength, langmode.DefaultIndentOptions())
	text := fmt.Sprintf("suggested indent %.1f  |  up/down move  pgup/pgdn jump  g go-to-definition  / find definition  q quit", indent)
	if m.status != "" {
		text = m.status + "  |  " + text
	}
	return style.Render(truncateText(text, m.width))
}

func (m model) renderBody(height int) string {
	gutterWidth := len(fmt.Sprintf("%d", m.lastRow()+1)) + 2
	codeWidth := max(1, m.width-gutterWidth)

	endRow := min(m.lastRow()+1, m.topRow+height)
	styles := m.styleByteSpans(m.topRow, endRow)

	gutterStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Gutter))
	foldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Operator))

	var lines []string
	for row := m.topRow; row < endRow; row++ {
		marker := " "
		if m.mode.IsFoldableAtRow(row) {
			marker = "▸"
		}
		numText := fmt.Sprintf("%*d ", gutterWidth-2, row+1)
		num := gutterStyle.Render(numText) + foldStyle.Render(marker)

		text := clipRunes(m.buf.LineForRow(row), codeWidth)
		rendered := m.renderRow(row, text, styles)
		if row == m.cursorRow {
			rendered = lipgloss.NewStyle().Background(lipgloss.Color(appTheme.CursorLine)).Render(padRightANSI(rendered, codeWidth))
		}
		lines = append(lines, num+rendered)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// span is one byte-offset range of the buffer's text tagged with the
// innermost scope name open across that range.
type span struct {
	startByte int
	endByte   int
	scope     string
}

// styleByteSpans walks a HighlightIterator across [fromRow, toRow) and
// resolves, for each boundary-to-boundary interval, the name of the
// innermost scope on the open-scope stack at that point.
func (m model) styleByteSpans(fromRow, toRow int) []span {
	it := m.mode.BuildHighlightIterator()
	it.Seek(langmode.Point{Row: fromRow, Column: 0}, toRow)

	var stack []int
	for _, id := range it.InitialOpenScopeIds() {
		stack = append(stack, id)
	}

	var spans []span
	prevByte := m.buf.CharacterIndexForPosition(langmode.Point{Row: fromRow, Column: 0})
	flush := func(endByte int) {
		if endByte <= prevByte {
			return
		}
		name := ""
		if len(stack) > 0 {
			name = m.mode.ScopeNameForScopeId(stack[len(stack)-1])
		}
		spans = append(spans, span{startByte: prevByte, endByte: endByte, scope: name})
		prevByte = endByte
	}

	for !it.Done() {
		pos := it.GetPosition()
		if pos.Row >= toRow {
			break
		}
		byteOffset := m.buf.CharacterIndexForPosition(pos)
		flush(byteOffset)

		for _, id := range it.GetCloseScopeIds() {
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == id {
					stack = append(stack[:i], stack[i+1:]...)
					break
				}
			}
		}
		stack = append(stack, it.GetOpenScopeIds()...)

		if !it.MoveToSuccessor() {
			break
		}
	}
	flush(m.buf.CharacterIndexForPosition(langmode.Point{Row: toRow, Column: 0}))
	return spans
}

func (m model) renderRow(row int, truncated string, spans []span) string {
	lineStart := m.buf.CharacterIndexForPosition(langmode.Point{Row: row, Column: 0})
	runes := []rune(truncated)
	if len(runes) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(runes); {
		byteOffset := lineStart + len(string(runes[:i]))
		scope := scopeAtByte(spans, byteOffset)
		j := i + 1
		for j < len(runes) {
			nextByte := lineStart + len(string(runes[:j]))
			if scopeAtByte(spans, nextByte) != scope {
				break
			}
			j++
		}
		b.WriteString(tokenStyle(scope).Render(string(runes[i:j])))
		i = j
	}
	return b.String()
}

// clipRunes trims line to at most width runes without altering the bytes
// of the runes it keeps, so rune offsets within the result still map to
// true byte offsets in the original buffer text.
func clipRunes(line string, width int) string {
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width])
}

func scopeAtByte(spans []span, byteOffset int) string {
	for _, s := range spans {
		if byteOffset >= s.startByte && byteOffset < s.endByte {
			return s.scope
		}
	}
	return ""
}

func tokenStyle(scope string) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Text))
	switch {
	case strings.HasPrefix(scope, "keyword"), scope == "tag":
		return style.Foreground(lipgloss.Color(appTheme.Keyword))
	case strings.HasPrefix(scope, "type"), scope == "namespace":
		return style.Foreground(lipgloss.Color(appTheme.Type))
	case strings.HasPrefix(scope, "function"):
		return style.Foreground(lipgloss.Color(appTheme.Function))
	case strings.HasPrefix(scope, "string"):
		return style.Foreground(lipgloss.Color(appTheme.String))
	case strings.HasPrefix(scope, "number"), strings.HasPrefix(scope, "constant"):
		return style.Foreground(lipgloss.Color(appTheme.Number))
	case strings.HasPrefix(scope, "comment"):
		return style.Foreground(lipgloss.Color(appTheme.Comment))
	case strings.HasPrefix(scope, "operator"), strings.HasPrefix(scope, "punctuation"):
		return style.Foreground(lipgloss.Color(appTheme.Operator)).Faint(true)
	case scope == "property", strings.HasPrefix(scope, "variable"):
		return style.Foreground(lipgloss.Color(appTheme.Muted))
	default:
		return style
	}
}

func (m model) renderPicker() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Muted))
	inputStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Text))

	lines := []string{
		headerStyle.Render(fmt.Sprintf("jump to definition (%d found)", len(m.picker.defs))),
		inputStyle.Render(m.picker.input.View()),
		"",
	}

	height := max(1, m.height-len(lines)-1)
	for i := 0; i < height && i < len(m.picker.filtered); i++ {
		f := m.picker.filtered[i]
		cand := m.picker.defs[f.Index]
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Text))
		if i == m.picker.cursor {
			prefix = "> "
			style = style.Foreground(lipgloss.Color(appTheme.Function)).Bold(true)
		}
		line := fmt.Sprintf("%s%-30s %4d  %s", prefix, cand.Key, cand.Line, truncateText(strings.TrimSpace(cand.Text), max(1, m.width-40)))
		lines = append(lines, style.Render(truncateText(line, m.width)))
	}
	for len(lines) < m.height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
