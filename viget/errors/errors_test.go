package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestVIError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *VIError
		wantStr string
	}{
		{
			name: "basic error",
			err: &VIError{
				Code:    "TEST_ERROR",
				Message: "test message",
			},
			wantStr: "[TEST_ERROR] test message",
		},
		{
			name: "error with cause",
			err: &VIError{
				Code:    "TEST_ERROR",
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			wantStr: "[TEST_ERROR] test message: underlying error",
		},
		{
			name: "error with details",
			err: &VIError{
				Code:    "TEST_ERROR",
				Message: "test message",
				Details: map[string]interface{}{"key": "value"},
			},
			wantStr: "details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if !strings.Contains(got, tt.wantStr) {
				t.Errorf("Error() = %q, want to contain %q", got, tt.wantStr)
			}
		})
	}
}

func TestVIError_WithCause(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrDecompression.WithCause(cause)

	if err.Cause != cause {
		t.Errorf("WithCause() cause = %v, want %v", err.Cause, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("WithCause() should allow errors.Is to work")
	}
}

func TestVIError_WithDetail(t *testing.T) {
	base := ErrChunkNotFound
	err := base.WithDetail("tag", "FPSE")

	if err.Details["tag"] != "FPSE" {
		t.Errorf("WithDetail() tag = %v, want FPSE", err.Details["tag"])
	}

	if _, exists := base.Details["tag"]; exists {
		t.Error("WithDetail() must not mutate the receiver")
	}
}

func TestVIError_WithMessage(t *testing.T) {
	err := ErrIntegrity.WithMessage("duplicate header mismatch")

	if err.Message != "duplicate header mismatch" {
		t.Errorf("WithMessage() message = %q, want 'duplicate header mismatch'", err.Message)
	}

	if err.Code != CodeIntegrity {
		t.Errorf("Code = %q, want %s", err.Code, CodeIntegrity)
	}
}

func TestVIError_WithMismatch(t *testing.T) {
	err := ErrIntegrity.WithMessage("length mismatch").WithMismatch(100, 99)

	if err.Details["expected"] != 100 {
		t.Errorf("expected detail = %v, want 100", err.Details["expected"])
	}

	if err.Details["actual"] != 99 {
		t.Errorf("actual detail = %v, want 99", err.Details["actual"])
	}
}

func TestVIError_IsMatchesCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same sentinel",
			err:    ErrFormat,
			target: ErrFormat,
			want:   true,
		},
		{
			name:   "derived with details",
			err:    ErrIntegrity.WithMessage("truncated directory").WithDetail("offset", 52),
			target: ErrIntegrity,
			want:   true,
		},
		{
			name:   "wrapped by fmt",
			err:    fmt.Errorf("extract: %w", ErrDecompression.WithMessage("size mismatch after inflate")),
			target: ErrDecompression,
			want:   true,
		},
		{
			name:   "different code",
			err:    ErrFormat.WithMessage("magic mismatch"),
			target: ErrIntegrity,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsVIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "VIError",
			err:  ErrChunkNotFound,
			want: true,
		},
		{
			name: "VIError with cause",
			err:  ErrStorage.WithCause(errors.New("test")),
			want: true,
		},
		{
			name: "wrapped VIError",
			err:  fmt.Errorf("outer: %w", ErrFormat),
			want: true,
		},
		{
			name: "standard error",
			err:  errors.New("test"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVIError(tt.err); got != tt.want {
				t.Errorf("IsVIError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "VIError",
			err:  ErrChunkNotFound,
			want: CodeChunkNotFound,
		},
		{
			name: "VIError with modifications",
			err:  ErrDecompression.WithMessage("redundant length mismatch").WithMismatch(5, 6),
			want: CodeDecompression,
		},
		{
			name: "standard error",
			err:  errors.New("test"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.want {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}
