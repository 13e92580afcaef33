package memory

import (
	"context"
	"sort"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// CategoryRepository implementa repository.CategoryRepository.
type CategoryRepository struct {
	db *DB
}

func (r *CategoryRepository) Create(_ context.Context, c *entity.Category) error {
	return r.db.view(false, func(st *state) error {
		if _, ok := st.categories[c.ID]; ok {
			return domain.ErrDuplicate
		}
		st.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepository) GetByID(_ context.Context, userID, id string) (*entity.Category, error) {
	var out *entity.Category
	err := r.db.view(false, func(st *state) error {
		c, ok := st.categories[id]
		if !ok || c.UserID != userID {
			return domain.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *CategoryRepository) Update(_ context.Context, c *entity.Category) error {
	return r.db.view(false, func(st *state) error {
		cur, ok := st.categories[c.ID]
		if !ok || cur.UserID != c.UserID {
			return domain.ErrNotFound
		}
		cur.Name = c.Name
		cur.UpdatedAt = c.UpdatedAt
		st.categories[c.ID] = cur
		return nil
	})
}

func (r *CategoryRepository) ListByUser(_ context.Context, userID string) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.db.view(false, func(st *state) error {
		for _, c := range st.categories {
			if c.UserID == userID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// Delete borra la categoría y, en cascada, sus productos y los movimientos de éstos.
func (r *CategoryRepository) Delete(_ context.Context, userID, id string) error {
	return r.db.view(false, func(st *state) error {
		c, ok := st.categories[id]
		if !ok || c.UserID != userID {
			return domain.ErrNotFound
		}
		delete(st.categories, id)
		for itemID, it := range st.items {
			if it.CategoryID == id {
				deleteItemLocked(st, itemID)
			}
		}
		return nil
	})
}
