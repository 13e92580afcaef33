package inventory

import (
	"context"

	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/application/ports"
	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// ApplyMovementFromRequest adapta el request HTTP al caso de uso ApplyMovement.
func (uc *StockLedgerUseCase) ApplyMovementFromRequest(ctx context.Context, userID, itemID string, in dto.ApplyMovementRequest, confirmer ports.Confirmer) (*ApplyMovementResult, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if in.CurrentStock == nil {
		return nil, domain.Invalid("current_stock", "es obligatorio")
	}
	return uc.ApplyMovement(ctx, ApplyMovementInput{
		UserID:       userID,
		ItemID:       itemID,
		Type:         entity.MovementType(in.Type),
		Quantity:     in.Quantity,
		CurrentStock: *in.CurrentStock,
		Confirmer:    confirmer,
	})
}

// UndoMovementFromRequest adapta el request HTTP al caso de uso UndoMovement.
func (uc *StockLedgerUseCase) UndoMovementFromRequest(ctx context.Context, userID, movementID string, in dto.UndoMovementRequest, confirmer ports.Confirmer) (*UndoMovementResult, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	return uc.UndoMovement(ctx, UndoMovementInput{
		UserID:     userID,
		MovementID: movementID,
		ItemID:     in.ItemID,
		Type:       entity.MovementType(in.Type),
		Quantity:   in.Quantity,
		Confirmer:  confirmer,
	})
}

// ToMovementResponse convierte un movimiento a DTO.
func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:         m.ID,
		ItemID:     m.ItemID,
		ItemName:   m.ItemName,
		Type:       string(m.Type),
		Quantity:   m.Quantity,
		ReversalOf: m.ReversalOf,
		CreatedAt:  m.CreatedAt,
	}
}
