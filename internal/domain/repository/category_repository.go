package repository

import (
	"context"

	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category (DIP).
// Todas las operaciones están acotadas al dueño (userID).
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, userID, id string) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	ListByUser(ctx context.Context, userID string) ([]*entity.Category, error)
	// Delete elimina la categoría; el backend borra en cascada productos y movimientos.
	Delete(ctx context.Context, userID, id string) error
}
