package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// Las lecturas traen el nombre del producto (join con items).
const movementSelect = `
	SELECT m.id, m.user_id, m.item_id, i.name, m.type, m.quantity, m.reversal_of, m.created_at
	FROM stock_movements m
	JOIN items i ON i.id = m.item_id`

// StockMovementRepo implementación del libro sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(s scanner) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var typ string
	if err := s.Scan(&m.ID, &m.UserID, &m.ItemID, &m.ItemName, &typ, &m.Quantity, &m.ReversalOf, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	return &m, nil
}

// Create inserta un movimiento. Una segunda reversión del mismo movimiento viola
// stock_movements_reversal_of_key y se informa como ErrAlreadyReversed.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, user_id, item_id, type, quantity, reversal_of, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, m.ID, m.UserID, m.ItemID, string(m.Type), m.Quantity, m.ReversalOf, m.CreatedAt)
	if err != nil {
		if code, constraint := pgCode(err); code == codeUniqueViolation && constraint == "stock_movements_reversal_of_key" {
			return domain.ErrAlreadyReversed
		}
		return mapError("insert stock movement", err)
	}
	return nil
}

// GetByID obtiene un movimiento del usuario.
func (r *StockMovementRepo) GetByID(ctx context.Context, userID, id string) (*entity.StockMovement, error) {
	row := r.q.QueryRow(ctx, movementSelect+` WHERE m.id = $1 AND m.user_id = $2`, id, userID)
	m, err := scanMovement(row)
	if err != nil {
		return nil, mapError("get stock movement", err)
	}
	return m, nil
}

// GetReversal devuelve el movimiento que revierte a id, o nil.
func (r *StockMovementRepo) GetReversal(ctx context.Context, userID, id string) (*entity.StockMovement, error) {
	row := r.q.QueryRow(ctx, movementSelect+` WHERE m.reversal_of = $1 AND m.user_id = $2`, id, userID)
	m, err := scanMovement(row)
	if err != nil {
		if err = mapError("get reversal", err); errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// List devuelve el historial, más reciente primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := movementSelect + ` WHERE m.user_id = $1`
	args := []any{f.UserID}
	if f.ItemID != "" {
		args = append(args, f.ItemID)
		query += fmt.Sprintf(" AND m.item_id = $%d", len(args))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		query += fmt.Sprintf(" AND m.created_at >= $%d", len(args))
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.list(ctx, query, args...)
}

// ListByItem devuelve todos los movimientos del producto en orden cronológico.
func (r *StockMovementRepo) ListByItem(ctx context.Context, userID, itemID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, movementSelect+` WHERE m.user_id = $1 AND m.item_id = $2 ORDER BY m.created_at, m.id`, userID, itemID)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, mapError("scan stock movement", err)
		}
		list = append(list, m)
	}
	return list, mapError("list stock movements", rows.Err())
}
