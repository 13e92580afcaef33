package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/domain"
)

// errorStatus traduce un error de dominio a status HTTP y código.
func errorStatus(err error) (int, string) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation), errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrStaleStock):
		return fiber.StatusConflict, "STALE_STOCK"
	case errors.Is(err, domain.ErrAlreadyReversed):
		return fiber.StatusConflict, "ALREADY_REVERSED"
	case errors.Is(err, domain.ErrOperationInProgress):
		return fiber.StatusConflict, "OPERATION_IN_PROGRESS"
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, "EMAIL_EXISTS"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrConfirmationRequired):
		return fiber.StatusPreconditionRequired, "CONFIRMATION_REQUIRED"
	case domain.IsTransport(err):
		return fiber.StatusBadGateway, "BACKEND_ERROR"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// toErrorResponse construye el cuerpo de error. El mensaje del backend se propaga tal cual.
func toErrorResponse(err error) (int, *dto.ErrorResponse) {
	status, code := errorStatus(err)
	return status, &dto.ErrorResponse{Code: code, Message: err.Error()}
}

// writeError responde con el error mapeado. Si la operación esperaba confirmación,
// incluye el texto que el usuario debe aprobar.
func writeError(c *fiber.Ctx, err error, confirm *requestConfirmer) error {
	status, body := toErrorResponse(err)
	if status == fiber.StatusPreconditionRequired && confirm != nil && confirm.prompt != nil {
		return c.Status(status).JSON(dto.ConfirmationResponse{
			Code:    body.Code,
			Message: body.Message,
			Prompt:  confirm.prompt.Message,
		})
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
