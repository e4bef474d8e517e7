package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigurationInvalid indicates a missing or unreadable tsconfig or tool config
	ConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"
	// NoFilesMatched indicates the file pattern matched nothing
	NoFilesMatched ErrorCode = "NO_FILES_MATCHED"
	// OutsideProjectRoot indicates a matched file lies outside the project root
	OutsideProjectRoot ErrorCode = "OUTSIDE_PROJECT_ROOT"
	// UnresolvableReference indicates a declaration whose references cannot be soundly computed
	UnresolvableReference ErrorCode = "UNRESOLVABLE_REFERENCE"
	// UnsupportedMutationTarget indicates an export marker that cannot be toggled
	UnsupportedMutationTarget ErrorCode = "UNSUPPORTED_MUTATION_TARGET"
	// ParseFailed indicates tree-sitter could not produce a tree
	ParseFailed ErrorCode = "PARSE_FAILED"
	// WriteFailed indicates a dirty file could not be persisted
	WriteFailed ErrorCode = "WRITE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// PassFlag suggests passing a different flag value
	PassFlag FixActionType = "pass-flag"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
}

// TspruneError represents an error with code, message, and suggestions
type TspruneError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a TspruneError carrying the predefined fixes for its code.
func New(code ErrorCode, message string, cause error) *TspruneError {
	return &TspruneError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Errorf creates a TspruneError with a formatted message and no cause.
func Errorf(code ErrorCode, format string, args ...interface{}) *TspruneError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *TspruneError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TspruneError) Unwrap() error {
	return e.cause
}

// Is matches another TspruneError by code, so sentinel values work with errors.Is.
func (e *TspruneError) Is(target error) bool {
	t, ok := target.(*TspruneError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrUnresolvableReference     = &TspruneError{Code: UnresolvableReference}
	ErrUnsupportedMutationTarget = &TspruneError{Code: UnsupportedMutationTarget}
)

// CodeOf returns the code of the first TspruneError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var te *TspruneError
	if errors.As(err, &te) {
		return te.Code
	}
	return InternalError
}

// IsConfiguration reports whether err aborts a run before analysis starts.
func IsConfiguration(err error) bool {
	switch CodeOf(err) {
	case ConfigurationInvalid, NoFilesMatched, OutsideProjectRoot:
		return true
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigurationInvalid: {
		{
			Type:        PassFlag,
			Command:     "--tsconfig=./tsconfig.json",
			Description: "Point --tsconfig at the project's tsconfig.json",
		},
	},
	NoFilesMatched: {
		{
			Type:        PassFlag,
			Command:     "--glob='./(src|apps|libs)/**/*.(ts|tsx)'",
			Description: "Check the --glob argument passed and try again",
		},
	},
	OutsideProjectRoot: {
		{
			Type:        PassFlag,
			Command:     "--tsconfig=<root>/tsconfig.json",
			Description: "Use a tsconfig whose directory contains every matched file",
		},
	},
	WriteFailed: {
		{
			Type:        RunCommand,
			Command:     "tsprune unused-exports --dry-run",
			Description: "Preview the edits without writing files",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
