package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// ANSI colors used for terminal output.
const (
	colorRed   = "1"
	colorBlue  = "4"
	colorCyan  = "6"
	colorGray  = "8"
	colorWhite = "15"
)

var (
	// colorEnabled controls whether colors are used.
	colorEnabled = true

	profile = termenv.ColorProfile()
)

// DisableColors disables color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables color output.
func EnableColors() {
	colorEnabled = true
}

// style colors text if colors are enabled.
func style(text, fg string, bold bool) string {
	if !colorEnabled {
		return text
	}
	s := profile.String(text).Foreground(profile.Color(fg))
	if bold {
		s = s.Bold()
	}
	return s.String()
}

func red(text string) string  { return style(text, colorRed, true) }
func blue(text string) string { return style(text, colorBlue, false) }
func cyan(text string) string { return style(text, colorCyan, false) }
func gray(text string) string { return style(text, colorGray, false) }
func white(text string, bold bool) string {
	return style(text, colorWhite, bold)
}

// Format returns the error formatted for terminal display.
func (e *ObserveError) Format() string {
	var b strings.Builder

	// Header line
	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red("ERROR "))
		b.WriteString(white(e.Code+": ", true))
	} else {
		b.WriteString(red("ERROR: "))
	}
	b.WriteString(white(e.Message, false))
	b.WriteString("\n\n")

	if e.Path != "" {
		b.WriteString("  at ")
		b.WriteString(cyan(e.Path))
		b.WriteString("\n\n")
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gray("Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(blue("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *ObserveError) FormatCompact() string {
	return e.Error()
}

// FormatJSON returns the error as a JSON object, as served by the
// inspector.
func (e *ObserveError) FormatJSON() string {
	var b strings.Builder
	b.WriteString("{")

	if e.Code != "" {
		b.WriteString(fmt.Sprintf(`"code":%q,`, e.Code))
	}
	b.WriteString(fmt.Sprintf(`"category":%q,`, e.Category))
	b.WriteString(fmt.Sprintf(`"message":%q`, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(`,"detail":%q`, e.Detail))
	}
	if e.Path != "" {
		b.WriteString(fmt.Sprintf(`,"path":%q`, e.Path))
	}
	if e.Wrapped != nil {
		b.WriteString(fmt.Sprintf(`,"cause":%q`, e.Wrapped.Error()))
	}
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf(`,"suggestion":%q`, e.Suggestion))
	}

	b.WriteString("}")
	return b.String()
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var current strings.Builder

	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	FprintError(os.Stderr, err)
}

// FprintError prints a formatted error to w.
func FprintError(w io.Writer, err error) {
	var oe *ObserveError
	if stderrors.As(err, &oe) {
		fmt.Fprint(w, oe.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", red("ERROR:"), err.Error())
}
