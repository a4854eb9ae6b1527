package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ConversationError Tests
// -----------------------------------------------------------------------------

func TestConversationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConversationError
		want string
	}{
		{
			name: "basic error",
			err:  NewConversationError("turn failed", nil),
			want: "conversation error: turn failed",
		},
		{
			name: "with cause",
			err:  NewConversationError("turn failed", ErrSessionEnded),
			want: "conversation error: turn failed: session already ended",
		},
		{
			name: "with turn and speaker",
			err:  NewConversationError("turn failed", nil).WithTurn(7).WithSpeaker("Proponent"),
			want: "conversation error [turn=7, speaker=Proponent]: turn failed",
		},
		{
			name: "turn zero is shown",
			err:  NewConversationError("turn failed", nil).WithTurn(0),
			want: "conversation error [turn=0]: turn failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversationError_Is(t *testing.T) {
	err := NewConversationError("test", ErrSessionEnded).WithTurn(3)

	if !Is(err, &ConversationError{}) {
		t.Error("Is(ConversationError{}) = false, want true")
	}
	if !Is(err, ErrSessionEnded) {
		t.Error("Is(ErrSessionEnded) = false, want true")
	}
	if Is(err, ErrInterrupted) {
		t.Error("Is(ErrInterrupted) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// CollaboratorError Tests
// -----------------------------------------------------------------------------

func TestCollaboratorError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewCollaboratorError("search", "endpoint unreachable", cause)

	want := "collaborator error [search]: endpoint unreachable: connection reset"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !err.IsRecoverable() {
		t.Error("IsRecoverable() = false, want true")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
	if !Is(err, cause) {
		t.Error("Is(cause) = false, want true")
	}
}

func TestCollaboratorError_WrappedThroughFmt(t *testing.T) {
	inner := NewCollaboratorError("agent", "stream failed", nil)
	wrapped := fmt.Errorf("flow: run turn: %w", inner)

	if !IsCollaborator(wrapped) {
		t.Error("IsCollaborator(wrapped) = false, want true")
	}
	if !IsRecoverable(wrapped) {
		t.Error("IsRecoverable(wrapped) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// StorageError Tests
// -----------------------------------------------------------------------------

func TestStorageError_Error(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewStorageError("failed to write record", cause).WithPath("/tmp/history")

	want := "storage error [path=/tmp/history]: failed to write record: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.IsRecoverable() {
		t.Error("IsRecoverable() = true, want false")
	}
}

// -----------------------------------------------------------------------------
// NotFoundError Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("session", "rust-vs-go_20250114")

	want := `session "rust-vs-go_20250114" not found`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// A session NotFoundError matches the sentinel.
	if !Is(err, ErrSessionNotFound) {
		t.Error("Is(ErrSessionNotFound) = false, want true")
	}

	// Other resource types do not.
	other := NewNotFoundError("prompt file", "prompts.yaml")
	if Is(other, ErrSessionNotFound) {
		t.Error("Is(ErrSessionNotFound) for prompt file = true, want false")
	}
}

// -----------------------------------------------------------------------------
// ValidationError Tests
// -----------------------------------------------------------------------------

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError("turn interval must be positive"),
			want: "validation error: turn interval must be positive",
		},
		{
			name: "with field and value",
			err: NewValidationError("warning threshold must be below max context").
				WithField("budget.warning_threshold").
				WithValue(200000),
			want: "validation error [field=budget.warning_threshold, value=200000]: warning threshold must be below max context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := NewValidationError("bad config")
	if !Is(err, ErrInvalidConfig) {
		t.Error("Is(ErrInvalidConfig) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// InvariantError Tests
// -----------------------------------------------------------------------------

func TestInvariantError(t *testing.T) {
	err := NewInvariantError("token cost slice out of lockstep")

	want := "invariant violation: token cost slice out of lockstep"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if err.IsRecoverable() {
		t.Error("IsRecoverable() = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: true},
		{name: "collaborator", err: NewCollaboratorError("agent", "timeout", nil), want: true},
		{name: "not found", err: NewNotFoundError("session", "x"), want: true},
		{name: "invariant", err: NewInvariantError("corrupt state"), want: false},
		{name: "validation", err: NewValidationError("bad"), want: false},
		{name: "plain error", err: errors.New("anything"), want: false},
		{
			name: "deeply wrapped collaborator",
			err:  fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", NewCollaboratorError("tool", "x", nil))),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInvariant(t *testing.T) {
	wrapped := fmt.Errorf("flow: append message: %w", NewInvariantError("negative pending end"))
	if !IsInvariant(wrapped) {
		t.Error("IsInvariant(wrapped) = false, want true")
	}
	if IsInvariant(errors.New("ordinary")) {
		t.Error("IsInvariant(ordinary) = true, want false")
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{name: "nil", err: nil, want: SeverityInfo},
		{name: "collaborator", err: NewCollaboratorError("agent", "x", nil), want: SeverityWarning},
		{name: "invariant", err: NewInvariantError("x"), want: SeverityCritical},
		{name: "plain", err: errors.New("x"), want: SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Wrapping Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	base := errors.New("base")

	wrapped := Wrap(base, "context")
	if wrapped.Error() != "context: base" {
		t.Errorf("Wrap() = %q, want %q", wrapped.Error(), "context: base")
	}
	if !Is(wrapped, base) {
		t.Error("wrapped error should match base via Is")
	}

	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestWrapf(t *testing.T) {
	base := errors.New("base")

	wrapped := Wrapf(base, "turn %d", 5)
	if wrapped.Error() != "turn 5: base" {
		t.Errorf("Wrapf() = %q, want %q", wrapped.Error(), "turn 5: base")
	}

	if Wrapf(nil, "turn %d", 5) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}
