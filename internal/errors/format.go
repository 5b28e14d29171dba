package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleCode    = lipgloss.NewStyle().Bold(true)
	styleHint    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleField   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detailIndent = lipgloss.NewStyle().PaddingLeft(2).Width(74)
)

// Format renders the error for a terminal.
func (e *ConsoleError) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styleLabel.Render("ERROR"))
	b.WriteString(" ")
	if e.Code != "" {
		b.WriteString(styleCode.Render(e.Code + ":"))
		b.WriteString(" ")
	}
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Field != "" {
		b.WriteString("  ")
		b.WriteString(styleField.Render(e.Field))
		b.WriteString("\n")
	}
	if e.Detail != "" {
		b.WriteString("\n")
		b.WriteString(detailIndent.Render(e.Detail))
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		b.WriteString("\n  ")
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		b.WriteString("\n  ")
		b.WriteString(styleHint.Render("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCompact renders the error on one line.
func (e *ConsoleError) FormatCompact() string {
	return e.Error()
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category,omitempty"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Field      string   `json:"field,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	Cause      string   `json:"cause,omitempty"`
}

// MarshalJSON encodes the error for machine consumers.
func (e *ConsoleError) MarshalJSON() ([]byte, error) {
	j := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Field:      e.Field,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		j.Cause = e.Wrapped.Error()
	}
	return json.Marshal(j)
}

// Print writes err to w, formatted when it is a *ConsoleError. Joined
// errors are printed one after another.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			Print(w, e)
		}
		return
	}
	var ce *ConsoleError
	if errors.As(err, &ce) {
		fmt.Fprint(w, ce.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", styleLabel.Render("ERROR"), err.Error())
}
