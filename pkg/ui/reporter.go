package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"cdli/pkg/progress"
)

const (
	labelWidth       = 30
	doubleLineMargin = 23
	singleLineMargin = 32
	minBarWidth      = 10

	defaultWidth = 80
)

// LineReporter redraws one block of progress lines in place, moving the
// cursor back up over the previous block before every render. It is meant
// to be driven by a progress.Tracker, which serializes calls to Render.
type LineReporter struct {
	out    io.Writer
	size   func() (width, height int)
	height int
}

// NewLineReporter creates a reporter writing to stderr and sized to it
func NewLineReporter() *LineReporter {
	return NewLineReporterWithWriter(os.Stderr, func() (int, int) {
		width, height, ok := TerminalSize(os.Stderr)
		if !ok {
			return defaultWidth, 0
		}
		return width, height
	})
}

// NewLineReporterWithWriter creates a reporter writing to out. size reports
// the terminal width and height; a height of 0 means unlimited.
func NewLineReporterWithWriter(out io.Writer, size func() (int, int)) *LineReporter {
	return &LineReporter{out: out, size: size}
}

// Render implements progress.Renderer
func (r *LineReporter) Render(entries []progress.Entry) {
	width, height := r.size()
	lines := Lines(entries, width, height)

	var b strings.Builder
	if r.height > 0 {
		fmt.Fprintf(&b, "\x1b[%dF", r.height)
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, _ = io.WriteString(r.out, b.String())
	r.height = len(lines)
}

var barPrefix = regexp.MustCompile(`^\[.+?\] `)

// Lines lays entries out for a terminal of the given width. Wide terminals
// get one line per entry, narrower ones put the bar under the label, and
// very narrow ones drop the bar and wrap. Every line is padded to width so
// it fully overwrites the previous render. A positive height caps the
// number of lines to height-1.
func Lines(entries []progress.Entry, width, height int) []string {
	if width <= 0 {
		width = defaultWidth
	}
	doubleWidth := width - doubleLineMargin
	singleWidth := doubleWidth - singleLineMargin

	var lines []string
	for _, e := range entries {
		switch {
		case singleWidth >= minBarWidth:
			lines = append(lines, padRight(e.Label, labelWidth)+": "+progress.Bar(e.State, singleWidth))
		case doubleWidth >= minBarWidth:
			lines = append(lines, e.Label, progress.Bar(e.State, doubleWidth))
		default:
			line := e.Label + ": " + barPrefix.ReplaceAllString(progress.Bar(e.State, minBarWidth), "")
			lines = append(lines, wrap(line, width)...)
		}
	}

	for i, line := range lines {
		lines[i] = padRight(line, width)
	}

	if height > 0 && len(lines) > height-1 {
		lines = lines[:max(height-1, 0)]
	}
	return lines
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func wrap(line string, width int) []string {
	runes := []rune(line)
	var lines []string
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	return append(lines, string(runes))
}

// Quiet discards progress
var Quiet progress.Renderer = progress.RendererFunc(func([]progress.Entry) {})
