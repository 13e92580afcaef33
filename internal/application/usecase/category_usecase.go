package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/application/ports"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/repository"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// CategoryUseCase casos de uso CRUD para categorías.
type CategoryUseCase struct {
	repo repository.CategoryRepository
	now  func() time.Time
	log  *logger.Logger
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository, log *logger.Logger) *CategoryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CategoryUseCase{repo: repo, now: time.Now, log: log}
}

// CategoryResult resultado de una mutación de categoría.
type CategoryResult struct {
	Category   *dto.CategoryResponse
	Invalidate []querycache.Resource
}

// Create crea una categoría para el usuario.
func (uc *CategoryUseCase) Create(ctx context.Context, userID string, in dto.CategoryRequest) (*CategoryResult, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	now := uc.now()
	c := &entity.Category{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("category_id", c.ID).Msg("categoría creada")
	return &CategoryResult{Category: toCategoryResponse(c), Invalidate: []querycache.Resource{querycache.Categories}}, nil
}

// Rename cambia el nombre de una categoría.
func (uc *CategoryUseCase) Rename(ctx context.Context, userID, id string, in dto.CategoryRequest) (*CategoryResult, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	c, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	// Los listados de productos muestran el nombre de la categoría y la búsqueda lo usa.
	return &CategoryResult{
		Category:   toCategoryResponse(c),
		Invalidate: []querycache.Resource{querycache.Categories, querycache.Items},
	}, nil
}

// Delete elimina la categoría previa confirmación; sus productos y movimientos se borran en cascada.
func (uc *CategoryUseCase) Delete(ctx context.Context, userID, id string, confirmer ports.Confirmer) ([]querycache.Resource, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	c, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !ports.Ask(ctx, confirmer, ports.DeleteCategoryPrompt(c.Name)) {
		return nil, domain.ErrConfirmationRequired
	}
	if err := uc.repo.Delete(ctx, userID, id); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("category_id", id).Msg("categoría eliminada")
	return []querycache.Resource{querycache.Categories, querycache.Items, querycache.StockMovements}, nil
}

// List lista las categorías del usuario ordenadas por nombre.
func (uc *CategoryUseCase) List(ctx context.Context, userID string) ([]dto.CategoryResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	list, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c))
	}
	return out, nil
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
