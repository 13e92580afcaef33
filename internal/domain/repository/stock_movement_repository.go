package repository

import (
	"context"
	"time"

	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// MovementFilter filtros para el historial. Orden: created_at descendente.
type MovementFilter struct {
	UserID string
	ItemID string     // vacío = todos los productos
	Since  *time.Time // nil = sin cota inferior
	Limit  int
}

// StockMovementRepository define el puerto del libro de movimientos (solo inserción).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, userID, id string) (*entity.StockMovement, error)
	// GetReversal devuelve el movimiento que revierte a id, o nil si no existe.
	GetReversal(ctx context.Context, userID, id string) (*entity.StockMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	ListByItem(ctx context.Context, userID, itemID string) ([]*entity.StockMovement, error)
}
