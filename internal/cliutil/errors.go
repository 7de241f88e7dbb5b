package cliutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/vernisaz/rb/internal/calc"
	"github.com/vernisaz/rb/internal/lexer"
)

// CLIError represents a formatted CLI-layer error with context, mirroring
// the teacher's CLIError (Type/Message/Details/Hint).
type CLIError struct {
	Kind    string // "script", "target", "property"
	Message string
	Details string
	Hint    string
}

func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError renders err to w, special-casing the engine's own error types
// before falling back to a generic "Error:" line, matching the teacher's
// switch e := err.(type) dispatch in cli/errors.go.
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	switch e := err.(type) {
	case *lexer.Error:
		fmt.Fprintf(w, "%s%s%s\n", Colorize("Syntax error: ", ColorRed, useColor), e.Error(), ColorReset)
	case *calc.Error:
		fmt.Fprintf(w, "%s%s (offset %d)%s\n", Colorize("Arithmetic error: ", ColorRed, useColor), e.Kind.String(), e.Offset, ColorReset)
	case *CLIError:
		formatCLIError(w, e, useColor)
	default:
		fmt.Fprintf(w, "%s%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error(), ColorReset)
	}
}

func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	fmt.Fprintf(w, "%s%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message, ColorReset)
	if err.Details != "" {
		fmt.Fprintf(w, "\n%s\n", err.Details)
	}
	if err.Hint != "" {
		fmt.Fprintf(w, "%s%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint, ColorReset)
	}
}

// FormatParseErrors prints every accumulated parser error (spec.md §7:
// "parsing proceeds where recoverable").
func FormatParseErrors(w io.Writer, errs []error, useColor bool) {
	for _, e := range errs {
		fmt.Fprintf(w, "%s%s%s\n", Colorize("Parse error: ", ColorRed, useColor), e.Error(), ColorReset)
	}
}
