package cli

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes
const (
	reset = "\033[0m"
	red   = "\033[31m"
	green = "\033[32m"
	blue  = "\033[34m"
	cyan  = "\033[36m"
	bold  = "\033[1m"
	dim   = "\033[2m"
)

// ColorPrinter provides colored output utilities
type ColorPrinter struct {
	out      io.Writer
	errOut   io.Writer
	useColor bool
}

// NewColorPrinter creates a printer for out and errOut. Color is used only
// when out is a terminal.
func NewColorPrinter(out, errOut io.Writer) *ColorPrinter {
	return &ColorPrinter{out: out, errOut: errOut, useColor: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func (p *ColorPrinter) colorize(color, text string) string {
	if !p.useColor {
		return text
	}
	return color + text + reset
}

// Success prints a green success message with checkmark
func (p *ColorPrinter) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.colorize(green, "✓"), fmt.Sprintf(format, args...))
}

// Error prints a red error message with X mark
func (p *ColorPrinter) Error(format string, args ...any) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.colorize(red, "✗"), fmt.Sprintf(format, args...))
}

// Info prints a blue info message
func (p *ColorPrinter) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.colorize(blue, "→"), fmt.Sprintf(format, args...))
}

// Row prints a label and a right-hand value.
func (p *ColorPrinter) Row(label, value string) {
	fmt.Fprintf(p.out, "%-12s %s\n", p.colorize(dim, label), value)
}

// Title prints a bold title
func (p *ColorPrinter) Title(format string, args ...any) {
	fmt.Fprintf(p.out, "%s\n", p.colorize(bold, fmt.Sprintf(format, args...)))
}

// PrintBanner prints the qpick banner
func (p *ColorPrinter) PrintBanner(version string) {
	banner := `
  ___  ___ ___ ___ _  __
 / _ \| _ \_ _/ __| |/ /
| (_) |  _/| | (__| ' <
 \__\_\_| |___\___|_|\_\
`
	fmt.Fprintln(p.out, p.colorize(cyan, banner))
	fmt.Fprintf(p.out, "%s %s\n\n", p.colorize(dim, "storefront checkout server"), p.colorize(dim, "v"+version))
}
