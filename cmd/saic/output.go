package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/dhamidi/saic/java/diag"
)

// setupColor decides once whether output is colored. In auto mode color is
// used only when stdout is a terminal.
func setupColor() error {
	switch opts.colorMode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto", "":
		fd := os.Stdout.Fd()
		color.NoColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	default:
		return fmt.Errorf("unknown color mode %q (want auto, always or never)", opts.colorMode)
	}
	return nil
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noteColor    = color.New(color.FgCyan)
	locColor     = color.New(color.Bold)
	codeColor    = color.New(color.Faint)
)

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning, diag.SevMandatoryWarning:
		return warningColor
	default:
		return noteColor
	}
}

func printDiagnostic(w io.Writer, d diag.Diagnostic) {
	loc := d.File
	switch {
	case d.Line > 0:
		loc = fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	case d.Pos.Preferred >= 0:
		loc = fmt.Sprintf("%s@%d", d.File, d.Pos.Preferred)
	}
	fmt.Fprintf(w, "%s: %s: %s %s\n",
		locColor.Sprint(loc),
		severityColor(d.Severity).Sprint(d.Severity),
		d.Message,
		codeColor.Sprintf("[%s]", d.Code()),
	)
}

// printDiagnostics writes every diagnostic of l and a summary line, and
// reports whether any error was recorded.
func printDiagnostics(w io.Writer, l *diag.Log) bool {
	for _, d := range l.Sorted() {
		printDiagnostic(w, d)
	}
	printSummary(w, "", l)
	return l.ErrorCount() > 0
}

func printSummary(w io.Writer, prefix string, l *diag.Log) {
	errs, warns := l.ErrorCount(), l.WarningCount()
	if errs == 0 && warns == 0 {
		return
	}
	if prefix != "" {
		prefix += ": "
	}
	summary := fmt.Sprintf("%s%s, %s", prefix, plural(errs, "error"), plural(warns, "warning"))
	if n := l.Dropped(); n > 0 {
		summary += fmt.Sprintf(" (%d more errors not shown)", n)
	}
	if errs > 0 {
		errorColor.Fprintln(w, summary)
	} else {
		warningColor.Fprintln(w, summary)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
