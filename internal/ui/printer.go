package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Totals summarizes a batch for the final line.
type Totals struct {
	Written   int
	Unchanged int
	Skipped   int
	Failed    int
	DryRun    bool
}

// Printer writes status lines for a batch run.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a Printer writing to w. Styling is applied only when w
// is a terminal.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	return &Printer{w: w, color: color}
}

// Stdout returns a Printer for os.Stdout.
func Stdout() *Printer {
	return NewPrinter(os.Stdout)
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Inputs prints the three input file lines shown at startup.
func (p *Printer) Inputs(itemFile, childFile, filesystemFile string) {
	fmt.Fprintf(p.w, "%s %s\n", p.style(Muted, "item file:"), itemFile)
	fmt.Fprintf(p.w, "%s %s\n", p.style(Muted, "child entity file:"), childFile)
	fmt.Fprintf(p.w, "%s %s\n", p.style(Muted, "filesystem entity file:"), filesystemFile)
}

// Caption prints the line for a file whose caption was written.
func (p *Printer) Caption(path, caption string) {
	fmt.Fprintf(p.w, "%s: %s\n", p.style(Accent, path), caption)
}

// Planned prints the line for a file a dry run would write.
func (p *Printer) Planned(path, caption string) {
	fmt.Fprintf(p.w, "%s: %s %s\n", p.style(Accent, path), caption, p.style(Muted, "(dry run)"))
}

// Failed prints the line for a file that could not be captioned.
func (p *Printer) Failed(path string, err error) {
	fmt.Fprintf(p.w, "✗ %s: %v\n", p.style(Accent, path), err)
}

// Summary prints the final totals line.
func (p *Printer) Summary(t Totals) {
	verb := "written"
	if t.DryRun {
		verb = "to write"
	}
	line := fmt.Sprintf("%d %s, %d unchanged, %d skipped, %d failed",
		t.Written, verb, t.Unchanged, t.Skipped, t.Failed)
	fmt.Fprintln(p.w, p.style(Bold, line))
}
