package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors used throughout coblame
var (
	ErrNotARepository     = errors.New("not a coblame repository (or any parent up to mount point)")
	ErrAlreadyInitialized = errors.New("coblame repository already exists")
	ErrDatabaseNotFound   = errors.New("database not found")
	ErrNoCommits          = errors.New("no commits yet")
	ErrNotConnected       = errors.New("not connected to database")
	ErrInvalidCommitID    = errors.New("invalid commit ID")
	ErrCommitNotFound     = errors.New("commit not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrPathNotInRepo      = errors.New("path is outside repository")
)

// CoblameError is a structured error with context and suggestions
type CoblameError struct {
	Title       string   // Short error title
	Message     string   // Detailed message
	Context     string   // What was being attempted
	Causes      []string // Possible causes
	Suggestions []string // Actionable suggestions with commands
	Err         error    // Wrapped error
}

func (e *CoblameError) Error() string {
	return e.Title
}

func (e *CoblameError) Unwrap() error {
	return e.Err
}

// Format returns a nicely formatted error message
func (e *CoblameError) Format() string {
	var sb strings.Builder

	// Title
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Title))

	// Context/message
	if e.Message != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Message))
	}
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Context))
	}

	// Causes
	if len(e.Causes) > 0 {
		sb.WriteString("\n  Possible causes:\n")
		for _, cause := range e.Causes {
			sb.WriteString(fmt.Sprintf("    • %s\n", cause))
		}
	}

	// Suggestions
	if len(e.Suggestions) > 0 {
		sb.WriteString("\n  Try:\n")
		for _, sug := range e.Suggestions {
			sb.WriteString(fmt.Sprintf("    $ %s\n", sug))
		}
	}

	return sb.String()
}

// NewError creates a new CoblameError
func NewError(title string) *CoblameError {
	return &CoblameError{Title: title}
}

// WithMessage adds a detailed message
func (e *CoblameError) WithMessage(msg string) *CoblameError {
	e.Message = msg
	return e
}

// WithContext adds context about what was being attempted
func (e *CoblameError) WithContext(ctx string) *CoblameError {
	e.Context = ctx
	return e
}

// WithCause adds a possible cause
func (e *CoblameError) WithCause(cause string) *CoblameError {
	e.Causes = append(e.Causes, cause)
	return e
}

// WithCauses adds multiple possible causes
func (e *CoblameError) WithCauses(causes ...string) *CoblameError {
	e.Causes = append(e.Causes, causes...)
	return e
}

// WithSuggestion adds an actionable suggestion
func (e *CoblameError) WithSuggestion(sug string) *CoblameError {
	e.Suggestions = append(e.Suggestions, sug)
	return e
}

// WithSuggestions adds multiple suggestions
func (e *CoblameError) WithSuggestions(sugs ...string) *CoblameError {
	e.Suggestions = append(e.Suggestions, sugs...)
	return e
}

// Wrap wraps an underlying error
func (e *CoblameError) Wrap(err error) *CoblameError {
	e.Err = err
	return e
}

// ══════════════════════════════════════════════════════════════════════════
// Pre-built error constructors for common cases
// ══════════════════════════════════════════════════════════════════════════

// NotARepoError returns a structured error for "not a repository"
func NotARepoError() *CoblameError {
	return NewError("Not a coblame repository").
		WithMessage("No .coblame directory found in current directory or any parent").
		WithSuggestions(
			"coblame init           # Initialize a repository pointing at a database",
			"cd /path/to/repo       # Change to an existing repository",
		)
}

// DatabaseConnectionError returns a structured error for DB connection issues
func DatabaseConnectionError(url string, err error) *CoblameError {
	return NewError("Cannot connect to database").
		WithContext(url).
		WithCauses(
			"Database server is not running",
			"Invalid connection credentials",
			"Network connectivity issues",
			"Database does not exist",
		).
		WithSuggestions(
			"coblame doctor         # Run diagnostics",
		).
		Wrap(err)
}

// CommitNotFoundError returns a structured error for missing commit
func CommitNotFoundError(ref string) *CoblameError {
	return NewError(fmt.Sprintf("Commit '%s' not found", ref)).
		WithCauses(
			"The commit ID is incorrect",
			"The commit may have been on a different branch",
		)
}

// MissingArgumentError returns an error for missing required argument
func MissingArgumentError(argName, example string) *CoblameError {
	e := NewError(fmt.Sprintf("Missing required argument: <%s>", argName))
	if example != "" {
		e.WithSuggestion(example)
	}
	return e
}

// TooManyArgumentsError returns an error for too many arguments
func TooManyArgumentsError(expected int, got int) *CoblameError {
	return NewError(fmt.Sprintf("Too many arguments: expected %d, got %d", expected, got))
}
