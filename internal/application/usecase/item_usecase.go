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

// ItemUseCase casos de uso CRUD para productos. Stock sólo cambia vía movimientos.
type ItemUseCase struct {
	repo         repository.ItemRepository
	categoryRepo repository.CategoryRepository
	now          func() time.Time
	log          *logger.Logger
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.ItemRepository, categoryRepo repository.CategoryRepository, log *logger.Logger) *ItemUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ItemUseCase{repo: repo, categoryRepo: categoryRepo, now: time.Now, log: log}
}

// ItemResult resultado de una mutación de producto.
type ItemResult struct {
	Item       *dto.ItemResponse
	Invalidate []querycache.Resource
}

// Create crea un producto con stock 0 en una categoría del usuario.
func (uc *ItemUseCase) Create(ctx context.Context, userID string, in dto.CreateItemRequest) (*ItemResult, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if _, err := uc.categoryRepo.GetByID(ctx, userID, in.CategoryID); err != nil {
		return nil, err
	}
	now := uc.now()
	item := &entity.Item{
		ID:         uuid.New().String(),
		UserID:     userID,
		CategoryID: in.CategoryID,
		Name:       in.Name,
		Stock:      0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("item_id", item.ID).Str("category_id", item.CategoryID).Msg("producto creado")
	return &ItemResult{Item: ToItemResponse(item), Invalidate: []querycache.Resource{querycache.Items}}, nil
}

// GetByID obtiene un producto del usuario.
func (uc *ItemUseCase) GetByID(ctx context.Context, userID, id string) (*dto.ItemResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	item, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return ToItemResponse(item), nil
}

// Rename cambia el nombre del producto. No permite modificar Stock.
func (uc *ItemUseCase) Rename(ctx context.Context, userID, id string, in dto.RenameItemRequest) (*ItemResult, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	item, err := uc.repo.Rename(ctx, userID, id, in.Name, uc.now())
	if err != nil {
		return nil, err
	}
	// El historial muestra el nombre del producto.
	return &ItemResult{
		Item:       ToItemResponse(item),
		Invalidate: []querycache.Resource{querycache.Items, querycache.StockMovements},
	}, nil
}

// Delete elimina el producto previa confirmación; sus movimientos se borran en cascada.
func (uc *ItemUseCase) Delete(ctx context.Context, userID, id string, confirmer ports.Confirmer) ([]querycache.Resource, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	item, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !ports.Ask(ctx, confirmer, ports.DeleteItemPrompt(item.Name)) {
		return nil, domain.ErrConfirmationRequired
	}
	if err := uc.repo.Delete(ctx, userID, id); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("item_id", id).Int("stock", item.Stock).Msg("producto eliminado")
	return []querycache.Resource{querycache.Items, querycache.StockMovements}, nil
}

// List lista productos del usuario, opcionalmente por categoría y filtrados por búsqueda.
func (uc *ItemUseCase) List(ctx context.Context, userID string, q dto.ItemListQuery) ([]dto.ItemResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	items, err := uc.repo.List(ctx, repository.ItemFilter{UserID: userID, CategoryID: q.CategoryID})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Search) != "" {
		cats, err := uc.categoryRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*entity.Category, len(cats))
		for _, c := range cats {
			byID[c.ID] = c
		}
		items = FilterItems(items, byID, q.Search)
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, *ToItemResponse(it))
	}
	return out, nil
}

// ToItemResponse convierte un producto a DTO.
func ToItemResponse(it *entity.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:         it.ID,
		CategoryID: it.CategoryID,
		Name:       it.Name,
		Stock:      it.Stock,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}
