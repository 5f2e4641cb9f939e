package http

import (
	"errors"
	"fmt"

	"resume-filler/internal/domain"
	"resume-filler/internal/usecase"
	"resume-filler/pkg/ai"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func newAPIError(code int, detail string) *APIError {
	return &APIError{Code: code, Message: utils.StatusMessage(code), Detail: detail}
}

// rawLimit bounds how much rejected generator output is echoed back.
const rawLimit = 200

// toAPIError maps pipeline errors to HTTP statuses.
func toAPIError(err error) *APIError {
	var (
		apiErr    *APIError
		fiberErr  *fiber.Error
		loadErr   *domain.LoadError
		parseErr  *domain.ExtractionParseError
		schemaErr *domain.SchemaValidationError
		genErr    *ai.GenerationError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &fiberErr):
		return newAPIError(fiberErr.Code, fiberErr.Message)
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return newAPIError(fiber.StatusUnsupportedMediaType, err.Error())
	case errors.As(err, &loadErr):
		return newAPIError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &parseErr):
		return newAPIError(fiber.StatusBadGateway, fmt.Sprintf("generator output is not valid json at offset %d near %q", parseErr.Offset, parseErr.Context))
	case errors.As(err, &schemaErr):
		return newAPIError(fiber.StatusBadGateway, fmt.Sprintf("%s; raw: %s", err.Error(), truncate(schemaErr.Raw, rawLimit)))
	case errors.Is(err, domain.ErrNoRenderableContent):
		return newAPIError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return newAPIError(fiber.StatusNotFound, "")
	case errors.Is(err, usecase.ErrInvalidOwner):
		return newAPIError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrRendererUnavailable):
		return newAPIError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ai.ErrTimeout):
		return newAPIError(fiber.StatusGatewayTimeout, generatorDetail(err))
	case errors.As(err, &genErr):
		return newAPIError(fiber.StatusBadGateway, generatorDetail(err))
	default:
		return newAPIError(fiber.StatusInternalServerError, "")
	}
}

// generatorDetail names the backend and upstream status of a failed
// generator call.
func generatorDetail(err error) string {
	var genErr *ai.GenerationError
	if !errors.As(err, &genErr) {
		return err.Error()
	}
	if genErr.Status != 0 {
		return fmt.Sprintf("%s generator failed with status %d: %s", genErr.Backend, genErr.Status, truncate(genErr.Err.Error(), rawLimit))
	}
	return fmt.Sprintf("%s generator failed: %s", genErr.Backend, truncate(genErr.Err.Error(), rawLimit))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
