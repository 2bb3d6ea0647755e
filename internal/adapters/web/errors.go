package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stream-resolver/internal/domain"
	"stream-resolver/pkg/log"
)

// ErrorResponse is the JSON envelope of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var (
		missing     *domain.MissingParameterError
		unsupported *domain.UnsupportedServiceError
		token       *domain.TokenAcquisitionError
		upstream    *domain.UpstreamFetchError
		internal    *domain.InternalResolutionError
		fiberErr    *fiber.Error
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &unsupported):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.As(err, &internal):
		return fiber.StatusInternalServerError
	case errors.As(err, &token):
		return fiber.StatusInternalServerError
	case errors.As(err, &upstream):
		return fiber.StatusBadGateway
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// publicMessage returns the text a client may see. Validation and token
// errors carry their own message; everything else is neutral.
func publicMessage(err error, status int) string {
	var (
		missing     *domain.MissingParameterError
		unsupported *domain.UnsupportedServiceError
		token       *domain.TokenAcquisitionError
		fiberErr    *fiber.Error
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &unsupported):
		return err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	case errors.As(err, &token):
		return token.Error()
	case status == fiber.StatusBadGateway:
		return "Failed to fetch listing page"
	case errors.As(err, &fiberErr) && status < fiber.StatusInternalServerError:
		return fiberErr.Message
	default:
		return "Internal error"
	}
}

// ErrorHandler renders any error that reaches Fiber as the JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)

	if status >= fiber.StatusInternalServerError {
		log.GlobalErrorCtx(c.UserContext(), "request failed", "status", status, "error", err)
	}

	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   publicMessage(err, status),
	})
}
