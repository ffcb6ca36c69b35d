package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrNotFound,
			expected: "Resource not found",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrNotFound.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("engine connection refused")
	newErr := ErrInternal.WithError(underlying)

	if newErr.Code != ErrInternal.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrInternal.Code)
	}

	if newErr.StatusCode != ErrInternal.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrInternal.StatusCode)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}

	if ErrInternal.Err != nil {
		t.Errorf("WithError must not mutate the predefined error")
	}
}

func TestAppError_WithMessage(t *testing.T) {
	err := ErrLowQualityImage.WithMessage("Image quality too low (score: %.1f/100)", 12.34)

	if err.Message != "Image quality too low (score: 12.3/100)" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != ErrLowQualityImage.Code {
		t.Errorf("Code = %v, want %v", err.Code, ErrLowQualityImage.Code)
	}
	if ErrLowQualityImage.Message != "Image quality too low for reliable recognition" {
		t.Errorf("WithMessage must not mutate the predefined error")
	}
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same pointer", ErrMultipleFaces, ErrMultipleFaces, true},
		{"copy with message", ErrMultipleFaces.WithMessage("Multiple faces detected (%d)", 3), ErrMultipleFaces, true},
		{"wrapped copy", fmt.Errorf("locate: %w", ErrNoFaceDetected.WithError(errors.New("boom"))), ErrNoFaceDetected, true},
		{"different code", ErrLowQualityImage, ErrInvalidImage, false},
		{"plain error target", ErrInvalidImage, errors.New("INVALID_IMAGE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Retryable(t *testing.T) {
	if !ErrServiceUnavailable.Retryable() {
		t.Error("service unavailable should be retryable")
	}
	for _, e := range []*AppError{ErrInvalidImage, ErrLowQualityImage, ErrNoFaceDetected, ErrMultipleFaces, ErrInvalidEmbedding} {
		if e.Retryable() {
			t.Errorf("%s should not be retryable", e.Code)
		}
	}
}

func TestPredefinedErrors_StatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code int
	}{
		{ErrInvalidImage, 400},
		{ErrInvalidFileType, 400},
		{ErrLowQualityImage, 400},
		{ErrMultipleFaces, 400},
		{ErrInvalidEmbedding, 400},
		{ErrValidationFailed, 400},
		{ErrNoFaceDetected, 422},
		{ErrServiceUnavailable, 503},
		{ErrInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if tt.err.StatusCode != tt.code {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.code)
			}
		})
	}
}

func TestFaceRegion(t *testing.T) {
	r := FaceRegion{X: 10, Y: 20, W: 120, H: 90}
	if r.Area() != 10800 {
		t.Errorf("Area() = %d, want 10800", r.Area())
	}
	if r.Size() != (FaceSize{Width: 120, Height: 90}) {
		t.Errorf("Size() = %+v", r.Size())
	}
}
