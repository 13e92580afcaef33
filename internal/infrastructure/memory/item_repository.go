package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/repository"
)

// ItemRepository implementa repository.ItemRepository.
type ItemRepository struct {
	db   *DB
	inTx bool
}

func (r *ItemRepository) Create(_ context.Context, it *entity.Item) error {
	return r.db.view(r.inTx, func(st *state) error {
		c, ok := st.categories[it.CategoryID]
		if !ok || c.UserID != it.UserID {
			return domain.ErrNotFound
		}
		if it.Stock < 0 {
			return domain.Invalid("stock", "el stock no puede ser negativo")
		}
		if _, ok := st.items[it.ID]; ok {
			return domain.ErrDuplicate
		}
		st.items[it.ID] = *it
		return nil
	})
}

func (r *ItemRepository) GetByID(_ context.Context, userID, id string) (*entity.Item, error) {
	var out *entity.Item
	err := r.db.view(r.inTx, func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.UserID != userID {
			return domain.ErrNotFound
		}
		out = &it
		return nil
	})
	return out, err
}

// GetForUpdate dentro de una transacción el lock ya está tomado por el TxRunner.
func (r *ItemRepository) GetForUpdate(ctx context.Context, userID, id string) (*entity.Item, error) {
	if r.inTx {
		if err := r.db.fault(OpItemGetForUpdate); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, userID, id)
}

func (r *ItemRepository) Rename(_ context.Context, userID, id, name string, now time.Time) (*entity.Item, error) {
	var out *entity.Item
	err := r.db.view(r.inTx, func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.UserID != userID {
			return domain.ErrNotFound
		}
		it.Name = name
		it.UpdatedAt = now
		st.items[id] = it
		out = &it
		return nil
	})
	return out, err
}

func (r *ItemRepository) UpdateStock(_ context.Context, userID, id string, stock int, now time.Time) error {
	return r.db.view(r.inTx, func(st *state) error {
		if err := r.db.fault(OpItemUpdateStock); err != nil {
			return err
		}
		it, ok := st.items[id]
		if !ok || it.UserID != userID {
			return domain.ErrNotFound
		}
		if stock < 0 {
			// Equivalente al CHECK (stock >= 0) del esquema.
			return domain.Transport("update items", errNegativeStock)
		}
		it.Stock = stock
		it.UpdatedAt = now
		st.items[id] = it
		return nil
	})
}

func (r *ItemRepository) List(_ context.Context, f repository.ItemFilter) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.db.view(r.inTx, func(st *state) error {
		for _, it := range st.items {
			if it.UserID != f.UserID {
				continue
			}
			if f.CategoryID != "" && it.CategoryID != f.CategoryID {
				continue
			}
			it := it
			out = append(out, &it)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

// Delete borra el producto y sus movimientos.
func (r *ItemRepository) Delete(_ context.Context, userID, id string) error {
	return r.db.view(r.inTx, func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.UserID != userID {
			return domain.ErrNotFound
		}
		deleteItemLocked(st, id)
		return nil
	})
}

func deleteItemLocked(st *state, itemID string) {
	delete(st.items, itemID)
	kept := st.movements[:0]
	for _, m := range st.movements {
		if m.ItemID != itemID {
			kept = append(kept, m)
		}
	}
	st.movements = kept
}
