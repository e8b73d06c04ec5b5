package main

import (
	"fmt"
	"time"

	"langmode"
	"langmode/internal/candidate"
	"langmode/internal/textbuffer"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type config struct {
	File      string
	Theme     string
	TabLength int
}

type model struct {
	cfg config

	mode *langmode.LanguageMode
	buf  *textbuffer.Buffer
	tag  string

	width  int
	height int

	cursorRow int
	topRow    int

	pickerOpen bool
	picker     pickerState

	status string
	errMsg string
}

type pickerState struct {
	input      textinput.Model
	defs       []candidate.Candidate
	filtered   []candidate.FilteredCandidate
	cursor     int
	lastResult []langmode.Definition
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func newModel(cfg config, mode *langmode.LanguageMode, buf *textbuffer.Buffer, tag string) model {
	input := textinput.New()
	input.Prompt = "def> "
	input.CharLimit = 128

	return model{
		cfg:    cfg,
		mode:   mode,
		buf:    buf,
		tag:    tag,
		picker: pickerState{input: input},
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case tea.KeyMsg:
		if m.pickerOpen {
			return m.updatePicker(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "pgup":
			m.moveCursor(-m.bodyHeight())
		case "pgdown":
			m.moveCursor(m.bodyHeight())
		case "home":
			m.cursorRow = 0
			m.ensureVisible()
		case "end":
			m.cursorRow = m.lastRow()
			m.ensureVisible()
		case "g":
			m.jumpToDefinition()
		case "/":
			m.openPicker()
		}
		return m, nil
	}
	return m, nil
}

func (m *model) lastRow() int {
	r := m.buf.GetRange()
	return r.End.Row
}

func (m *model) moveCursor(delta int) {
	m.cursorRow = clamp(m.cursorRow+delta, 0, m.lastRow())
	m.ensureVisible()
}

func (m *model) bodyHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *model) ensureVisible() {
	h := m.bodyHeight()
	if m.cursorRow < m.topRow {
		m.topRow = m.cursorRow
	}
	if m.cursorRow >= m.topRow+h {
		m.topRow = m.cursorRow - h + 1
	}
	if m.topRow < 0 {
		m.topRow = 0
	}
}

func (m *model) jumpToDefinition() {
	col := m.buf.LineLengthForRow(m.cursorRow)
	if col > 0 {
		col--
	}
	pos, ok := m.mode.FindDefinitionAtPosition(langmode.Point{Row: m.cursorRow, Column: col})
	if !ok {
		m.status = "no definition found under cursor"
		return
	}
	m.cursorRow = pos.Row
	m.ensureVisible()
	m.status = fmt.Sprintf("jumped to %d:%d", pos.Row+1, pos.Column+1)
}

func (m *model) openPicker() {
	defs := m.mode.ListLocalDefinitions()
	m.picker.lastResult = defs
	m.picker.defs = make([]candidate.Candidate, len(defs))
	for i, d := range defs {
		m.picker.defs[i] = candidate.Candidate{
			ID:   i,
			File: m.cfg.File,
			Line: d.Pos.Row + 1,
			Col:  d.Pos.Column + 1,
			Text: d.Text,
			Key:  d.Name,
		}
	}
	m.picker.input.SetValue("")
	m.picker.input.Focus()
	m.picker.cursor = 0
	m.picker.filtered = candidate.FilterCandidates(m.picker.defs, "")
	m.pickerOpen = true
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pickerOpen = false
		return m, nil
	case "enter":
		if m.picker.cursor >= 0 && m.picker.cursor < len(m.picker.filtered) {
			idx := m.picker.filtered[m.picker.cursor].Index
			d := m.picker.defs[idx]
			m.cursorRow = d.Line - 1
			m.ensureVisible()
		}
		m.pickerOpen = false
		return m, nil
	case "up", "ctrl+p":
		m.picker.cursor = clamp(m.picker.cursor-1, 0, max(0, len(m.picker.filtered)-1))
		return m, nil
	case "down", "ctrl+n":
		m.picker.cursor = clamp(m.picker.cursor+1, 0, max(0, len(m.picker.filtered)-1))
		return m, nil
	}

	var cmd tea.Cmd
	m.picker.input, cmd = m.picker.input.Update(msg)
	m.picker.filtered = candidate.FilterCandidates(m.picker.defs, m.picker.input.Value())
	m.picker.cursor = clamp(m.picker.cursor, 0, max(0, len(m.picker.filtered)-1))
	return m, cmd
}
