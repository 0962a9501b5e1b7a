// Package output implements the user-facing message log: every line is
// printed to the console writer and kept, in order, for the caller.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	bold      = color.New(color.Bold).SprintFunc()
	underline = color.New(color.Underline).SprintFunc()
	tipBadge  = color.New(color.BgHiYellow, color.FgBlack).SprintFunc()
)

// Bold renders s in bold when color output is enabled.
func Bold(s string) string { return bold(s) }

// Underline renders s underlined when color output is enabled.
func Underline(s string) string { return underline(s) }

// Tip renders the "TIP!" badge.
func Tip() string { return tipBadge("TIP!") }

// Log collects emitted lines. The zero value prints to os.Stdout.
type Log struct {
	w     io.Writer
	lines []string
}

// New returns a Log writing to w. A nil w discards console output and only
// accumulates.
func New(w io.Writer) *Log {
	if w == nil {
		w = io.Discard
	}
	return &Log{w: w}
}

// Println joins parts with single spaces and emits the result as one entry.
// A multi-line entry is written as-is and kept as a single entry.
func (l *Log) Println(parts ...string) {
	l.emit(strings.Join(parts, " "))
}

// Printf formats and emits one entry.
func (l *Log) Printf(format string, a ...any) {
	l.emit(fmt.Sprintf(format, a...))
}

func (l *Log) emit(line string) {
	w := l.w
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintln(w, line)
	l.lines = append(l.lines, line)
}

// Lines returns a copy of everything emitted so far.
func (l *Log) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// String returns the entries joined by newlines, as they appeared on the console.
func (l *Log) String() string {
	return strings.Join(l.lines, "\n")
}
