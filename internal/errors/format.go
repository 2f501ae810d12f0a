package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

// colorEnabled controls whether Format emits ANSI escapes.
var colorEnabled = true

// DisableColors turns off ANSI escapes in Format output.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colorEnabled = true }

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// Format renders the error as an indented block for terminal output.
func (e *LoomError) Format() string {
	var b strings.Builder

	head := "ERROR: " + e.Message
	if e.Code != "" {
		head = "ERROR " + e.Code + ": " + e.Message
	}
	fmt.Fprintf(&b, "\n%s\n\n", paint(head, ansiRed, ansiBold))

	if e.Component != "" {
		fmt.Fprintf(&b, "  %s\n\n", paint("component "+e.Component, ansiCyan))
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("cause: ", ansiGray), e.Wrapped.Error())
	}
	if lines := wrapText(e.Detail, 70); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Hint: ", ansiCyan), e.Suggestion)
	}
	return b.String()
}

// FormatCompact renders the error on one line: "E100: Render failed [List]".
func (e *LoomError) FormatCompact() string {
	s := e.Message
	if e.Code != "" {
		s = e.Code + ": " + s
	}
	if e.Component != "" {
		s += " [" + e.Component + "]"
	}
	return s
}

type jsonError struct {
	Code      string   `json:"code,omitempty"`
	Category  Category `json:"category"`
	Message   string   `json:"message"`
	Detail    string   `json:"detail,omitempty"`
	Component string   `json:"component,omitempty"`
	Cause     string   `json:"cause,omitempty"`
}

// FormatJSON renders the error as a JSON object.
func (e *LoomError) FormatJSON() string {
	v := jsonError{
		Code:      e.Code,
		Category:  e.Category,
		Message:   e.Message,
		Detail:    e.Detail,
		Component: e.Component,
	}
	if e.Wrapped != nil {
		v.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText splits text into lines of at most width bytes, breaking on
// whitespace. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// Fprint writes err to w: LoomErrors in the Format layout, anything else
// as a single ERROR line.
func Fprint(w io.Writer, err error) {
	var le *LoomError
	if stderrors.As(err, &le) {
		fmt.Fprint(w, le.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiRed, ansiBold), err.Error())
}
