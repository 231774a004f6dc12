package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeTemplateNotFound, "template %q not found", "card.png")

	if err.Code != ErrCodeTemplateNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeTemplateNotFound)
	}

	if err.Message != `template "card.png" not found` {
		t.Errorf("Message = %v, want %v", err.Message, `template "card.png" not found`)
	}

	expected := `TEMPLATE_NOT_FOUND: template "card.png" not found`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeTransport, cause, "post render request")

	if err.Code != ErrCodeTransport {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeTransport)
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
			err:      New(ErrCodeFontUnavailable, "test"),
			code:     ErrCodeFontUnavailable,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeFontUnavailable, "test"),
			code:     ErrCodeTransport,
			expected: false,
		},
		{
			name:     "outer code wins",
			err:      Wrap(ErrCodeInternal, New(ErrCodeBasePageMissing, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("page 2: %w", New(ErrCodePageOutOfRange, "inner")),
			code:     ErrCodePageOutOfRange,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInternal,
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

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeInvalidRequest, "test"), ErrCodeInvalidRequest},
		{"plain error", errors.New("plain"), ErrCodeInternal},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.expected {
				t.Errorf("CodeOf() = %v, want %v", got, tt.expected)
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
		{"Error type", New(ErrCodeTemplateNotFound, "friendly message"), "friendly message"},
		{"plain error is hidden", errors.New("open /srv/fonts: permission denied"), "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeTemplateNotFound, http.StatusNotFound},
		{ErrCodeBasePageMissing, http.StatusNotFound},
		{ErrCodeFontUnavailable, http.StatusNotFound},
		{ErrCodePageOutOfRange, http.StatusUnprocessableEntity},
		{ErrCodeInvalidRequest, http.StatusBadRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestIsTransport(t *testing.T) {
	if !IsTransport(Wrap(ErrCodeTransport, errors.New("refused"), "dial")) {
		t.Error("IsTransport should be true for TRANSPORT_ERROR")
	}
	if IsTransport(New(ErrCodeTimeout, "slow")) {
		t.Error("timeouts are per-item failures, not transport aborts")
	}
}
