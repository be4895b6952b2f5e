package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryScenario Category = "scenario"
	CategoryCLI      Category = "cli"
)

// Location represents a position in a config or scenario file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ToolError is a structured error with file location and a hint.
type ToolError struct {
	// Code is a unique error identifier (e.g., "T201").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is where in the input file the error occurred.
	Location *Location

	// Context contains surrounding lines of the input file.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct form.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Location != nil {
		msg = e.Location.String() + ": " + msg
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ToolError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file location and reads the surrounding lines.
func (e *ToolError) WithLocation(file string, line, column int) *ToolError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ToolError) WithSuggestion(s string) *ToolError {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *ToolError) WithExample(ex string) *ToolError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ToolError) WithDetail(d string) *ToolError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ToolError) Wrap(err error) *ToolError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	if filename == "" || targetLine <= 0 {
		return nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a ToolError from a registered error code.
func New(code string) *ToolError {
	template, ok := registry[code]
	if !ok {
		return &ToolError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ToolError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new ToolError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ToolError {
	return &ToolError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ToolError.
func FromError(err error, code string) *ToolError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*ToolError); ok {
		return te
	}
	return New(code).Wrap(err).WithDetail(err.Error())
}
