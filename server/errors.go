package server

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aydenstechdungeon/qpick/ui"
)

// ErrorCode represents an error code.
type ErrorCode string

const (
	ErrorCodeInternal    ErrorCode = "INTERNAL_ERROR"
	ErrorCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrorCodeBadRequest  ErrorCode = "BAD_REQUEST"
	ErrorCodeValidation  ErrorCode = "VALIDATION_ERROR"
	ErrorCodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError is an error with an HTTP status and a stable code.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Stack      string         `json:"stack,omitempty"`
	StatusCode int            `json:"-"`
	cause      error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewAppError creates a new application error.
func NewAppError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// WithStack adds a stack trace to the error.
func (e *AppError) WithStack(stack string) *AppError {
	e.Stack = stack
	return e
}

// BadRequest reports a malformed request.
func BadRequest(message string) *AppError {
	return NewAppError(ErrorCodeBadRequest, message, fiber.StatusBadRequest)
}

// ValidationError reports an invalid field.
func ValidationError(field, message string) *AppError {
	return NewAppError(ErrorCodeValidation, "Validation failed", fiber.StatusBadRequest).
		WithDetails(map[string]any{"field": field, "message": message})
}

// Internal wraps an unexpected failure.
func Internal(err error) *AppError {
	e := NewAppError(ErrorCodeInternal, "Internal server error", fiber.StatusInternalServerError)
	e.cause = err
	return e
}

// asAppError converts any handler error into an AppError.
func asAppError(err error, devMode bool) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := ErrorCodeInternal
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = ErrorCodeNotFound
		case fiber.StatusBadRequest:
			code = ErrorCodeBadRequest
		}
		return NewAppError(code, fiberErr.Message, fiberErr.Code)
	}
	appErr = Internal(err)
	if devMode {
		appErr.Message = err.Error()
		appErr = appErr.WithStack(string(debug.Stack()))
	}
	return appErr
}

// ErrorHandler renders errors as JSON for API and JSON clients and as a
// small HTML page otherwise. Server errors are logged.
func ErrorHandler(logger *slog.Logger, devMode bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := asAppError(err, devMode)
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"code", appErr.Code,
				"error", err,
			)
		}

		if strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
			return c.Status(appErr.StatusCode).JSON(fiber.Map{
				"error":   appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
		}

		page, rerr := ui.Render(c.UserContext(), errorPage(appErr, devMode))
		if rerr != nil {
			return c.Status(appErr.StatusCode).SendString(appErr.Error())
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Status(appErr.StatusCode).SendString(page)
	}
}

// NotFoundHandler creates a 404 handler.
func NotFoundHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return NewAppError(ErrorCodeNotFound, "Page not found: "+c.Path(), fiber.StatusNotFound)
	}
}
