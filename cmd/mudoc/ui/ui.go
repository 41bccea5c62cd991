// Package ui provides terminal output for the mudoc CLI.
package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// UI writes human output to Out and diagnostics to Err. In JSON mode only
// JSON documents are written to Out.
type UI struct {
	Out      io.Writer
	Err      io.Writer
	noColor  bool
	jsonMode bool
	verbose  bool
}

// New creates a UI writing to stdout and stderr.
func New(jsonMode, noColor, verbose bool) *UI {
	if noColor || !IsTerminal() {
		noColor = true
		color.NoColor = true
	}
	return &UI{
		Out:      os.Stdout,
		Err:      os.Stderr,
		noColor:  noColor,
		jsonMode: jsonMode,
		verbose:  verbose,
	}
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// JSON reports whether JSON output was requested.
func (ui *UI) JSON() bool {
	return ui.jsonMode
}

// Interactive reports whether progress indicators should be drawn.
func (ui *UI) Interactive() bool {
	return !ui.jsonMode && IsTerminal()
}

// PrintJSON writes v as indented JSON.
func (ui *UI) PrintJSON(v any) error {
	enc := json.NewEncoder(ui.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (ui *UI) print(w io.Writer, attr color.Attribute, symbol, format string, args ...any) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Fprintf(w, "%s %s\n", symbol, msg)
		return
	}
	color.New(attr).Fprintf(w, "%s %s\n", symbol, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...any) {
	ui.print(ui.Out, color.FgGreen, "✓", format, args...)
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...any) {
	ui.print(ui.Err, color.FgRed, "✗", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...any) {
	ui.print(ui.Out, color.FgYellow, "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...any) {
	ui.print(ui.Out, color.FgCyan, "ℹ", format, args...)
}

// Step prints a step message. Steps are shown only in verbose mode.
func (ui *UI) Step(format string, args ...any) {
	if !ui.verbose {
		return
	}
	ui.print(ui.Out, color.FgBlue, "→", format, args...)
}

// KeyValue prints an aligned key/value line.
func (ui *UI) KeyValue(key, value string) {
	if ui.jsonMode {
		return
	}
	label := fmt.Sprintf("%-16s", key+":")
	if !ui.noColor {
		label = color.New(color.Bold).Sprint(label)
	}
	fmt.Fprintf(ui.Out, "%s %s\n", label, value)
}

// Table prints rows in aligned columns. The header is colored after
// alignment so escape codes do not count toward column widths.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()

	header, body, _ := strings.Cut(buf.String(), "\n")
	if !ui.noColor {
		header = color.New(color.FgCyan, color.Bold).Sprint(header)
	}
	fmt.Fprintf(ui.Out, "%s\n%s", header, body)
}
