package server

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if appErr, ok := err.(*AppError); ok {
				status = appErr.StatusCode
			} else if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		)
		return err
	}
}

// RecoveryMiddleware turns a handler panic into an internal AppError.
func RecoveryMiddleware(logger *slog.Logger, devMode bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("panic", "path", c.Path(), "panic", fmt.Sprint(r), "stack", stack)
				appErr := Internal(fmt.Errorf("panic: %v", r))
				if devMode {
					appErr = appErr.WithStack(stack)
				}
				err = appErr
			}
		}()
		return c.Next()
	}
}

// SecurityHeaders adds security headers.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}
