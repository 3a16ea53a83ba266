package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamStatus      = "UPSTREAM_STATUS_ERROR"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
	CodeDependencyUnhealthy = "DEPENDENCY_UNAVAILABLE"
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusUnprocessableEntity, details)
}

func NewNotFound(message string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUpstreamStatusError reports a non-2xx answer from the upstream API.
// Client errors keep their status; anything else becomes a 502.
func NewUpstreamStatusError(status int, body string) error {
	httpStatus := http.StatusBadGateway
	if status >= 400 && status < 500 {
		httpStatus = status
	}
	return &DomainError{
		Code:       CodeUpstreamStatus,
		Message:    fmt.Sprintf("External API error: %s", body),
		HTTPStatus: httpStatus,
		Details: map[string]any{
			"upstream_status": status,
			"upstream_body":   body,
		},
	}
}

func NewServiceUnavailable(err error) error {
	return &DomainError{
		Code:       CodeServiceUnavailable,
		Message:    fmt.Sprintf("Failed to connect to external service: %v", err),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	msg := "internal server error"
	if err != nil {
		msg = fmt.Sprintf("Internal server error: %v", err)
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// UpstreamStatus returns the upstream HTTP status carried by err, if any.
func UpstreamStatus(err error) (int, bool) {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != CodeUpstreamStatus {
		return 0, false
	}
	status, ok := domainErr.Details["upstream_status"].(int)
	return status, ok
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := CodeInternal
		switch {
		case fiberErr.Code == http.StatusNotFound:
			code = CodeNotFound
		case fiberErr.Code < 500:
			code = "HTTP_" + fmt.Sprint(fiberErr.Code)
		}
		return NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}
	// A request deadline or cancellation ends the wait on the upstream.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewServiceUnavailable(err).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}
