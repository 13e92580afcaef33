package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, user_id, category_id, name, stock, created_at, updated_at`

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*entity.Item, error) {
	var it entity.Item
	if err := s.Scan(&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Stock, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// Create persiste un producto. La categoría debe pertenecer al mismo usuario.
func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	query := `
		INSERT INTO items (id, user_id, category_id, name, stock, created_at, updated_at)
		SELECT $1, $2, c.id, $4, $5, $6, $7
		FROM categories c WHERE c.id = $3 AND c.user_id = $2`
	tag, err := r.q.Exec(ctx, query, it.ID, it.UserID, it.CategoryID, it.Name, it.Stock, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return mapError("insert item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene un producto del usuario.
func (r *ItemRepo) GetByID(ctx context.Context, userID, id string) (*entity.Item, error) {
	row := r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 AND user_id = $2`, id, userID)
	it, err := scanItem(row)
	if err != nil {
		return nil, mapError("get item", err)
	}
	return it, nil
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ItemRepo) GetForUpdate(ctx context.Context, userID, id string) (*entity.Item, error) {
	row := r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	it, err := scanItem(row)
	if err != nil {
		return nil, mapError("get item for update", err)
	}
	return it, nil
}

// Rename actualiza el nombre y devuelve el producto actualizado.
func (r *ItemRepo) Rename(ctx context.Context, userID, id, name string, now time.Time) (*entity.Item, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE items SET name = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING `+itemColumns, id, userID, name, now)
	it, err := scanItem(row)
	if err != nil {
		return nil, mapError("rename item", err)
	}
	return it, nil
}

// UpdateStock fija el stock materializado. El CHECK (stock >= 0) del esquema rechaza negativos.
func (r *ItemRepo) UpdateStock(ctx context.Context, userID, id string, stock int, now time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE items SET stock = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`,
		id, userID, stock, now,
	)
	if err != nil {
		return mapError("update item stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos del usuario ordenados por nombre.
func (r *ItemRepo) List(ctx context.Context, f repository.ItemFilter) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = $1`
	args := []any{f.UserID}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	query += " ORDER BY name, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list items", err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, mapError("scan item", err)
		}
		list = append(list, it)
	}
	return list, mapError("list items", rows.Err())
}

// Delete elimina el producto; sus movimientos caen por ON DELETE CASCADE.
func (r *ItemRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
