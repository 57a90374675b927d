package tui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode describes how progress output should be rendered.
type OutputMode int

const (
	// ModeTUI uses bubbletea for interactive progress rendering.
	ModeTUI OutputMode = iota
	// ModePlain prints log lines as they are drained.
	ModePlain
)

// DetectMode picks the TUI only for a real terminal with a usable TERM.
func DetectMode(out io.Writer, plain bool) OutputMode {
	if plain {
		return ModePlain
	}
	file, ok := out.(*os.File)
	if !ok {
		return ModePlain
	}
	if !isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd()) {
		return ModePlain
	}
	term := os.Getenv("TERM")
	if term == "" || strings.EqualFold(term, "dumb") {
		return ModePlain
	}
	return ModeTUI
}
