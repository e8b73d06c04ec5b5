package main

import (
	"flag"
	"fmt"
	"os"

	"langmode"
	"langmode/internal/grammar"
	"langmode/internal/lang"
	"langmode/internal/readfile"
	"langmode/internal/textbuffer"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	var cfg config
	flag.StringVar(&cfg.File, "file", "", "source file to open")
	flag.StringVar(&cfg.Theme, "theme", "nord", "color theme (for example: nord, dracula, monokai, github, solarized-dark)")
	flag.IntVar(&cfg.TabLength, "tab-length", 2, "indent width in columns")
	flag.Parse()

	if cfg.File == "" && flag.NArg() > 0 {
		cfg.File = flag.Arg(0)
	}
	if cfg.File == "" {
		fmt.Fprintln(os.Stderr, "usage: langmode-view -file <path> [-theme name] [-tab-length n]")
		os.Exit(2)
	}

	if err := SetTheme(cfg.Theme); err != nil {
		fmt.Fprintf(os.Stderr, "theme: %v\n", err)
		os.Exit(1)
	}

	text, err := readfile.ReadNormalizedText(cfg.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", cfg.File, err)
		os.Exit(1)
	}

	registry := grammar.NewRegistry()
	id := lang.DetectWithShebang(cfg.File, firstLine(text))
	tag, ok := id.GrammarTag()
	if !ok {
		tag = string(grammar.Go)
	}
	g := registry.Lookup(tag)
	if g == nil {
		fmt.Fprintf(os.Stderr, "no grammar registered for %q\n", tag)
		os.Exit(1)
	}

	buf := textbuffer.New(text)
	mode := langmode.NewLanguageMode(buf, g, registry, nil)

	fullRange := buf.GetRange()
	tx := langmode.BufferTransaction{Changes: []langmode.BufferChange{{
		OldRange: langmode.Range{},
		NewRange: fullRange,
		OldText:  "",
		NewText:  text,
	}}}
	if err := mode.BufferDidFinishTransaction(tx); err != nil {
		fmt.Fprintf(os.Stderr, "initial parse: %v\n", err)
		os.Exit(1)
	}

	m := newModel(cfg, mode, buf, tag)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i]
		}
	}
	return text
}
