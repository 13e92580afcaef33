package repository

import (
	"context"
	"time"

	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// ItemFilter filtros de igualdad para listar productos.
type ItemFilter struct {
	UserID     string
	CategoryID string // vacío = todas las categorías
	Limit      int    // 0 = sin límite
}

// ItemRepository define el puerto de persistencia para Item (DIP).
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, userID, id string) (*entity.Item, error)
	// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE) dentro de la tx.
	GetForUpdate(ctx context.Context, userID, id string) (*entity.Item, error)
	Rename(ctx context.Context, userID, id, name string, now time.Time) (*entity.Item, error)
	UpdateStock(ctx context.Context, userID, id string, stock int, now time.Time) error
	List(ctx context.Context, filter ItemFilter) ([]*entity.Item, error)
	// Delete elimina el producto; el backend borra en cascada sus movimientos.
	Delete(ctx context.Context, userID, id string) error
}
