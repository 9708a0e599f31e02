package domain

import (
	"context"
	"errors"
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is compara pelo Code, então ErrX.WithError(err) continua sendo ErrX para errors.Is
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy with a more specific message, keeping code and status
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// SourceFailure marks an opaque detector/extractor error. Errors that already carry a
// domain code (bad image) and context cancellation pass through unchanged.
func SourceFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return ErrDescriptorSourceFailure.WithError(err)
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API key",
		StatusCode: 401,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	// Gallery / enrollment errors
	ErrNoUsableDescriptor = &AppError{
		Code:       "NO_USABLE_DESCRIPTOR",
		Message:    "No face could be described in any of the enrollment images",
		StatusCode: 422,
	}

	ErrIdentityNotFound = &AppError{
		Code:       "IDENTITY_NOT_FOUND",
		Message:    "Identity not found",
		StatusCode: 404,
	}

	ErrIdentityExists = &AppError{
		Code:       "IDENTITY_ALREADY_EXISTS",
		Message:    "An identity with this label is already enrolled",
		StatusCode: 409,
	}

	ErrInvalidLabel = &AppError{
		Code:       "INVALID_LABEL",
		Message:    "Label must be a non-empty string",
		StatusCode: 422,
	}

	// Matching errors
	ErrDimensionMismatch = &AppError{
		Code:       "DIMENSION_MISMATCH",
		Message:    "Descriptor length does not match the gallery",
		StatusCode: 422,
	}

	ErrInvalidDescriptor = &AppError{
		Code:       "INVALID_DESCRIPTOR",
		Message:    "Descriptor is empty, has the wrong length or contains non-finite values",
		StatusCode: 422,
	}

	ErrDetectionCount = &AppError{
		Code:       "DETECTION_COUNT",
		Message:    "Exactly one face is required in the image",
		StatusCode: 422,
	}

	ErrDescriptorSourceFailure = &AppError{
		Code:       "DESCRIPTOR_SOURCE_FAILURE",
		Message:    "Face detector or descriptor extractor failed",
		StatusCode: 502,
	}

	// Session errors
	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Tracking session not found",
		StatusCode: 404,
	}

	ErrSessionLimitReached = &AppError{
		Code:       "SESSION_LIMIT_REACHED",
		Message:    "Too many active tracking sessions, try again later",
		StatusCode: 429,
	}
)
