// Package errors provides centralized error definitions and error handling
// utilities for the sparring codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - ConversationError: errors raised by the turn loop
//   - CollaboratorError: failures of an external collaborator (agent, search, analyzer)
//   - StorageError: errors related to session persistence
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or configuration
//   - InvariantError: internal state corruption that must abort the session
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewCollaboratorError("agent", "response stream failed", cause)
//	err := errors.NewInvariantError("token cost slice out of lockstep")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrInterrupted) { ... }
//
//	var collabErr *errors.CollaboratorError
//	if errors.As(err, &collabErr) { ... }
//
//	if errors.IsRecoverable(err) { ... }
//	if errors.IsInvariant(err) { ... }
//
// # Error Classification
//
// Collaborator failures are recoverable: the turn loop skips the side
// effect or the turn and keeps going. Invariant violations are never
// recoverable: they indicate a bug in the tracker or scheduler itself and
// abort the session.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo Severity = iota
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that must abort the session.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrInterrupted indicates that an in-flight agent response was
	// cancelled by the operator before completing.
	ErrInterrupted = New("response interrupted")

	// ErrSessionNotFound indicates that a stored session could not be found.
	ErrSessionNotFound = New("session not found")

	// ErrSessionEnded indicates an operation on a conversation that has
	// already reached a terminal state.
	ErrSessionEnded = New("session already ended")

	// ErrNoProvider indicates that an optional collaborator was not
	// configured for the requested operation.
	ErrNoProvider = New("provider not configured")

	// ErrInvalidConfig indicates that configuration validation failed.
	ErrInvalidConfig = New("invalid configuration")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message     string
	cause       error
	severity    Severity
	recoverable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRecoverable returns whether the turn loop may continue past this error.
func (e *baseError) IsRecoverable() bool {
	return e.recoverable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ConversationError represents errors raised by the turn loop.
//
// Example:
//
//	err := errors.NewConversationError("failed to resolve pending end", cause)
//	err = err.WithTurn(12).WithSpeaker("Proponent")
type ConversationError struct {
	baseError
	Turn    int
	Speaker string
}

// NewConversationError creates a new ConversationError.
func NewConversationError(message string, cause error) *ConversationError {
	return &ConversationError{
		baseError: baseError{
			message:     message,
			cause:       cause,
			severity:    SeverityError,
			recoverable: false,
		},
		Turn: -1, // -1 indicates not set
	}
}

// WithTurn adds the turn number to the error context.
func (e *ConversationError) WithTurn(turn int) *ConversationError {
	e.Turn = turn
	return e
}

// WithSpeaker adds the speaking agent's name to the error context.
func (e *ConversationError) WithSpeaker(name string) *ConversationError {
	e.Speaker = name
	return e
}

// Error returns the formatted error message.
func (e *ConversationError) Error() string {
	var parts []string
	if e.Turn >= 0 {
		parts = append(parts, fmt.Sprintf("turn=%d", e.Turn))
	}
	if e.Speaker != "" {
		parts = append(parts, fmt.Sprintf("speaker=%s", e.Speaker))
	}

	prefix := "conversation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("conversation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ConversationError) Is(target error) bool {
	if _, ok := target.(*ConversationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CollaboratorError represents a failure of an external collaborator:
// the agent API, the search provider, the context analyzer, or the
// summarizer. These are always recoverable; the loop treats them as
// "no result this turn".
//
// Example:
//
//	err := errors.NewCollaboratorError("search", "endpoint unreachable", cause)
type CollaboratorError struct {
	baseError
	Collaborator string
}

// NewCollaboratorError creates a new CollaboratorError.
func NewCollaboratorError(collaborator, message string, cause error) *CollaboratorError {
	return &CollaboratorError{
		baseError: baseError{
			message:     message,
			cause:       cause,
			severity:    SeverityWarning,
			recoverable: true,
		},
		Collaborator: collaborator,
	}
}

// Error returns the formatted error message.
func (e *CollaboratorError) Error() string {
	prefix := "collaborator error"
	if e.Collaborator != "" {
		prefix = fmt.Sprintf("collaborator error [%s]", e.Collaborator)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *CollaboratorError) Is(target error) bool {
	if _, ok := target.(*CollaboratorError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StorageError represents errors related to session persistence.
//
// Example:
//
//	err := errors.NewStorageError("failed to write record", cause).WithPath(path)
type StorageError struct {
	baseError
	Path string
}

// NewStorageError creates a new StorageError.
func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{
		baseError: baseError{
			message:     message,
			cause:       cause,
			severity:    SeverityError,
			recoverable: false,
		},
	}
}

// WithPath adds the file path to the error context.
func (e *StorageError) WithPath(path string) *StorageError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	prefix := "storage error"
	if e.Path != "" {
		prefix = fmt.Sprintf("storage error [path=%s]", e.Path)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StorageError) Is(target error) bool {
	if _, ok := target.(*StorageError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError indicates that a resource could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("session", "rust-vs-go_20250114")
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:     fmt.Sprintf("%s not found", resourceType),
			severity:    SeverityWarning,
			recoverable: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds an underlying cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.ResourceType, e.ResourceID)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == ErrSessionNotFound && e.ResourceType == "session" {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError indicates invalid input or configuration.
//
// Example:
//
//	err := errors.NewValidationError("warning threshold must be below max context").
//		WithField("budget.warning_threshold")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:     message,
			cause:       ErrInvalidConfig,
			severity:    SeverityError,
			recoverable: false,
		},
	}
}

// WithField adds the offending field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the offending value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	if len(parts) > 0 {
		return fmt.Sprintf("validation error [%s]: %s", strings.Join(parts, ", "), e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// InvariantError indicates internal state corruption: the token cost
// slice falling out of lockstep with the history, or a negative grace
// counter. These point at a bug in the tracker or scheduler, not at
// external failure, and must abort the session rather than continue
// with corrupted state.
type InvariantError struct {
	baseError
}

// NewInvariantError creates a new InvariantError.
func NewInvariantError(message string) *InvariantError {
	return &InvariantError{
		baseError: baseError{
			message:     message,
			severity:    SeverityCritical,
			recoverable: false,
		},
	}
}

// WithCause adds an underlying cause to the error.
func (e *InvariantError) WithCause(cause error) *InvariantError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *InvariantError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invariant violation: %s: %v", e.message, e.cause)
	}
	return fmt.Sprintf("invariant violation: %s", e.message)
}

// Is checks if this error matches the target.
func (e *InvariantError) Is(target error) bool {
	if _, ok := target.(*InvariantError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// classifier is implemented by all error types in this package.
type classifier interface {
	Severity() Severity
	IsRecoverable() bool
}

// IsRecoverable reports whether the turn loop may continue past err.
// Collaborator failures and not-found conditions are recoverable;
// invariant violations never are.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}

	var c classifier
	if errors.As(err, &c) {
		return c.IsRecoverable()
	}
	return false
}

// IsInvariant reports whether err is (or wraps) an invariant violation.
func IsInvariant(err error) bool {
	var inv *InvariantError
	return errors.As(err, &inv)
}

// IsCollaborator reports whether err is (or wraps) a collaborator failure.
func IsCollaborator(err error) bool {
	var collab *CollaboratorError
	return errors.As(err, &collab)
}

// GetSeverity returns the severity of err, defaulting to SeverityError
// for errors not defined by this package.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityInfo
	}

	var c classifier
	if errors.As(err, &c) {
		return c.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Wrapping Helpers
// -----------------------------------------------------------------------------

// Wrap wraps an error with a message. Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
