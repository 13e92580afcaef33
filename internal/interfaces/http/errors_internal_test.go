package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/fizyostok/stok-api/internal/domain"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Invalid("quantity", "debe ser mayor que 0"), fiber.StatusBadRequest, "VALIDATION"},
		{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("buscar: %w", domain.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{&domain.InsufficientStockError{Available: 2, Requested: 5}, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
		{fmt.Errorf("%w (guardado 3, observado 5)", domain.ErrStaleStock), fiber.StatusConflict, "STALE_STOCK"},
		{domain.ErrAlreadyReversed, fiber.StatusConflict, "ALREADY_REVERSED"},
		{domain.ErrOperationInProgress, fiber.StatusConflict, "OPERATION_IN_PROGRESS"},
		{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
		{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
		{domain.ErrConfirmationRequired, fiber.StatusPreconditionRequired, "CONFIRMATION_REQUIRED"},
		{domain.Transport("items update", errors.New("connection refused")), fiber.StatusBadGateway, "BACKEND_ERROR"},
		{errors.New("algo raro"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, code := errorStatus(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestToErrorResponse_MensajeDelBackendTalCual(t *testing.T) {
	_, body := toErrorResponse(domain.Transport("items update", errors.New(`new row violates check constraint "items_stock_check"`)))
	assert.Equal(t, `new row violates check constraint "items_stock_check"`, body.Message)
}
