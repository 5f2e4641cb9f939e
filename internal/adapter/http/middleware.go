package http

import (
	"log/slog"
	"time"

	"resume-filler/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a uuid, echoes it in X-Request-ID and
// stores it in the user context for loggers downstream.
func RequestID(c *fiber.Ctx) error {
	id := uuid.New().String()
	c.Locals("request_id", id)
	c.Set(requestIDHeader, id)
	c.SetUserContext(logger.WithRequestID(c.UserContext(), id))
	return c.Next()
}

// Logger logs one line per request.
func Logger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = toAPIError(err).Code
	}
	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID(c),
	}
	switch {
	case status >= 500:
		slog.Error("Request failed with server error", append(attrs, "error", err)...)
	case status >= 400:
		slog.Warn("Request failed with client error", attrs...)
	default:
		slog.Info("Request completed", attrs...)
	}
	return err
}

// ErrorHandler renders every error as an APIError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	apiErr := *toAPIError(err)
	apiErr.RequestID = requestID(c)
	return c.Status(apiErr.Code).JSON(apiErr)
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}
