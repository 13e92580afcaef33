package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/repository"
)

var errNegativeStock = errors.New(`new row for relation "items" violates check constraint "items_stock_check"`)

// StockMovementRepository implementa repository.StockMovementRepository.
type StockMovementRepository struct {
	db   *DB
	inTx bool
}

func (r *StockMovementRepository) Create(_ context.Context, m *entity.StockMovement) error {
	return r.db.view(r.inTx, func(st *state) error {
		if err := r.db.fault(OpMovementCreate); err != nil {
			return err
		}
		it, ok := st.items[m.ItemID]
		if !ok || it.UserID != m.UserID {
			return domain.ErrNotFound
		}
		if m.Quantity <= 0 || !m.Type.Valid() {
			return domain.Invalid("quantity", "la cantidad debe ser mayor que 0")
		}
		for _, existing := range st.movements {
			if existing.ID == m.ID {
				return domain.ErrDuplicate
			}
			if m.IsReversal() && existing.IsReversal() && *existing.ReversalOf == *m.ReversalOf {
				return domain.ErrAlreadyReversed
			}
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *StockMovementRepository) GetByID(_ context.Context, userID, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := r.db.view(r.inTx, func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id && m.UserID == userID {
				out = withItemName(st, m)
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *StockMovementRepository) GetReversal(_ context.Context, userID, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := r.db.view(r.inTx, func(st *state) error {
		for _, m := range st.movements {
			if m.UserID == userID && m.IsReversal() && *m.ReversalOf == id {
				out = withItemName(st, m)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// List devuelve los movimientos más recientes primero.
func (r *StockMovementRepository) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.db.view(r.inTx, func(st *state) error {
		if err := r.db.fault(OpMovementList); err != nil {
			return err
		}
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.UserID != f.UserID {
				continue
			}
			if f.ItemID != "" && m.ItemID != f.ItemID {
				continue
			}
			if f.Since != nil && m.CreatedAt.Before(*f.Since) {
				continue
			}
			out = append(out, withItemName(st, m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ListByItem devuelve todos los movimientos del producto en orden cronológico.
func (r *StockMovementRepository) ListByItem(_ context.Context, userID, itemID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.db.view(r.inTx, func(st *state) error {
		for _, m := range st.movements {
			if m.UserID == userID && m.ItemID == itemID {
				out = append(out, withItemName(st, m))
			}
		}
		return nil
	})
	return out, err
}

func withItemName(st *state, m entity.StockMovement) *entity.StockMovement {
	if it, ok := st.items[m.ItemID]; ok {
		m.ItemName = it.Name
	}
	return &m
}
