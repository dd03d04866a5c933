// Package termui is the CLI's output surface: colored status lines,
// y/n confirmation prompts, and an install/download progress bar. It
// keeps the familiar Out/Err logger pair but adds color and a progress
// bar for long-running installs and downloads.
package termui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Logger holds the two output streams the CLI writes to, plus whether
// confirmation prompts should be skipped (the -y/--yes flag).
type Logger struct {
	Out, Err io.Writer
	ForceYes bool

	errPrefix  *color.Color
	infoPrefix *color.Color
	okPrefix   *color.Color
}

// New returns a Logger writing status to out and errors to errW.
func New(out, errW io.Writer) *Logger {
	return &Logger{
		Out:        out,
		Err:        errW,
		errPrefix:  color.New(color.FgRed, color.Bold),
		infoPrefix: color.New(color.FgCyan, color.Bold),
		okPrefix:   color.New(color.FgGreen, color.Bold),
	}
}

// Errorf prints a red [ERROR]-prefixed line to Err.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.errPrefix.Fprint(l.Err, "[ERROR] ")
	fmt.Fprintf(l.Err, format+"\n", args...)
}

// Infof prints a cyan [INFO]-prefixed line to Out.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.infoPrefix.Fprint(l.Out, "[INFO] ")
	fmt.Fprintf(l.Out, format+"\n", args...)
}

// Okf prints a green [OK]-prefixed line to Out.
func (l *Logger) Okf(format string, args ...interface{}) {
	l.okPrefix.Fprint(l.Out, "[OK] ")
	fmt.Fprintf(l.Out, format+"\n", args...)
}

// Confirm asks the user a y/n question on Out, reading the answer from
// in. When ForceYes is set the prompt is skipped and true is returned
// without reading anything, matching --yes/-y on the CLI surface.
func (l *Logger) Confirm(in io.Reader, format string, args ...interface{}) (bool, error) {
	if l.ForceYes {
		return true, nil
	}

	fmt.Fprintf(l.Out, format+" [y/N] ", args...)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

// TerminalWidth returns the width of the terminal backing fd, falling
// back to 80 columns when fd isn't a terminal (piped output, CI logs).
func TerminalWidth(fd int) int {
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
