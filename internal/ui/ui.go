// Package ui formats CLI output for the ainav commands: colored status
// lines on an interactive terminal, plain text otherwise.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	colorAccent = "154" // lime green
	colorDim    = "245"
	colorRed    = "196"
	colorYellow = "220"
)

// Styles holds the lipgloss styles used to render CLI output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Score   lipgloss.Style
}

func coloredStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		Score:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
	}
}

func plainStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Score:   lipgloss.NewStyle(),
	}
}

// Writer prints formatted status and result output to an io.Writer,
// falling back to plain text when the destination isn't a terminal.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer, auto-detecting color support from out and the
// NO_COLOR environment variable.
func New(out io.Writer) *Writer {
	return &Writer{out: out, styles: stylesFor(out)}
}

func stylesFor(out io.Writer) Styles {
	if !supportsColor(out) {
		return plainStyles()
	}
	return coloredStyles()
}

func supportsColor(out io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (w *Writer) Success(msg string) {
	fmt.Fprintln(w.out, w.styles.Success.Render("✓"), msg)
}

func (w *Writer) Warning(msg string) {
	fmt.Fprintln(w.out, w.styles.Warning.Render("!"), msg)
}

func (w *Writer) Error(msg string) {
	fmt.Fprintln(w.out, w.styles.Error.Render("✗"), msg)
}

func (w *Writer) Header(msg string) {
	fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

func (w *Writer) Dim(msg string) {
	fmt.Fprintln(w.out, w.styles.Dim.Render(msg))
}

// Score renders a float64 score bolded in the accent color, or plain
// text without color support.
func (w *Writer) Score(score float64) string {
	return w.styles.Score.Render(fmt.Sprintf("%.4f", score))
}
