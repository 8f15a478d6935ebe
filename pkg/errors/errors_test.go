package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeFamilyNotFound, "no family with hash %s", "ab12cd34")

	if err.Code != ErrCodeFamilyNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFamilyNotFound)
	}
	if err.Message != "no family with hash ab12cd34" {
		t.Errorf("Message = %v", err.Message)
	}

	expected := "FAMILY_NOT_FOUND: no family with hash ab12cd34"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStore, cause, "load layout ab12cd34")

	if err.Code != ErrCodeStore {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStore)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeGraphCycle, "graph contains a cycle"),
			code:     ErrCodeGraphCycle,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeGraphCycle, "graph contains a cycle"),
			code:     ErrCodeStore,
			expected: false,
		},
		{
			name:     "wrapped error reports the outer code",
			err:      Wrap(ErrCodeStore, New(ErrCodeInvalidGraph, "dangling link"), "apply changeset"),
			code:     ErrCodeStore,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidGraph,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidGraph,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeTimeout, "optimization interrupted"),
			expected: ErrCodeTimeout,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error drops the code prefix",
			err:      New(ErrCodeInvalidHash, "hash must be 64 hex characters"),
			expected: "hash must be 64 hex characters",
		},
		{
			name:     "plain error passes through",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}
