package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// detailWidth is the column Format wraps Detail text at.
const detailWidth = 70

type style string

const (
	styleReset style = "\033[0m"
	styleRed   style = "\033[31m"
	styleCyan  style = "\033[36m"
	styleBold  style = "\033[1m"
)

var plain atomic.Bool

// DisableColors turns off ANSI styling, e.g. when stderr is not a terminal.
func DisableColors() { plain.Store(true) }

// EnableColors turns ANSI styling back on.
func EnableColors() { plain.Store(false) }

func paint(text string, styles ...style) string {
	if plain.Load() || len(styles) == 0 {
		return text
	}
	var b strings.Builder
	for _, s := range styles {
		b.WriteString(string(s))
	}
	b.WriteString(text)
	b.WriteString(string(styleReset))
	return b.String()
}

// Format renders the error for a terminal:
//
//	ERROR R103: Invalid debounce interval
//
//	  The debounce interval must be a positive Go duration such as "300ms".
//
//	  Cause: time: invalid duration "fast"
//
//	  Hint: Use a value like "250ms"
func (e *Error) Format() string {
	var b strings.Builder

	heading := paint("ERROR:", styleRed, styleBold)
	if e.Code != "" {
		heading = paint("ERROR ", styleRed, styleBold) + paint(e.Code+":", styleBold)
	}
	fmt.Fprintf(&b, "%s %s\n\n", heading, e.Message)

	if lines := wrapText(e.Detail, detailWidth); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteByte('\n')
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  Cause: %v\n\n", e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint("Hint:", styleCyan), e.Suggestion)
	}
	return b.String()
}

// FormatCompact returns a single-line form: "R101: message: detail".
func (e *Error) FormatCompact() string {
	return e.Error()
}

// wrapText breaks text into lines of at most width bytes. A single word longer
// than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(word) > width {
			lines = append(lines, word)
			continue
		}
		*last += " " + word
	}
	return lines
}

// PrintError writes err to w, using Format for *Error values.
func PrintError(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		io.WriteString(w, e.Format())
		return
	}
	fmt.Fprintf(w, "%s %s\n", paint("ERROR:", styleRed, styleBold), err)
}
