package http

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/application/inventory"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/application/usecase"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// ItemHandler maneja las peticiones HTTP para productos (protegido).
type ItemHandler struct {
	handlerBase
	uc     *usecase.ItemUseCase
	ledger *inventory.StockLedgerUseCase
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *usecase.ItemUseCase, ledger *inventory.StockLedgerUseCase, cache *querycache.Cache, log *logger.Logger) *ItemHandler {
	return &ItemHandler{handlerBase: handlerBase{cache: cache, log: log}, uc: uc, ledger: ledger}
}

// List godoc
// @Summary      Listar productos
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        category_id  query  string  false  "Filtrar por categoría"
// @Param        q            query  string  false  "Búsqueda por nombre de producto o categoría"
// @Success      200  {object}  dto.QueryResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	var q dto.ItemListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	q.Search = strings.TrimSpace(q.Search)
	userID := GetUserID(c)
	filter := url.Values{"category_id": {q.CategoryID}, "q": {q.Search}}.Encode()
	key := querycache.Key{Resource: querycache.Items, Filter: filter, UserID: userID}
	return serveQuery(c, h.cache, key, func(ctx context.Context) ([]dto.ItemResponse, error) {
		return h.uc.List(ctx, userID, q)
	})
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.QueryResponse
// @Failure      404  {object}  dto.QueryResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	userID, id := GetUserID(c), c.Params("id")
	key := querycache.Key{Resource: querycache.Items, Filter: "id=" + id, UserID: userID}
	return serveQuery(c, h.cache, key, func(ctx context.Context) (*dto.ItemResponse, error) {
		return h.uc.GetByID(ctx, userID, id)
	})
}

// Create godoc
// @Summary      Crear producto
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Categoría y nombre"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err, nil)
	}
	h.invalidate(c, out.Invalidate)
	return c.Status(fiber.StatusCreated).JSON(out.Item)
}

// Rename godoc
// @Summary      Renombrar producto
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.RenameItemRequest  true  "Nuevo nombre"
// @Success      200   {object}  dto.ItemResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *ItemHandler) Rename(c *fiber.Ctx) error {
	var in dto.RenameItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Rename(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err, nil)
	}
	h.invalidate(c, out.Invalidate)
	return c.JSON(out.Item)
}

// Delete godoc
// @Summary      Borrar producto y su historial
// @Tags         items
// @Security     Bearer
// @Param        id       path   string  true   "ID del producto"
// @Param        confirm  query  bool    false  "Confirmación explícita"
// @Success      204
// @Failure      428  {object}  dto.ConfirmationResponse
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	confirm := confirmerFor(c, false)
	groups, err := h.uc.Delete(c.UserContext(), GetUserID(c), c.Params("id"), confirm)
	if err != nil {
		return writeError(c, err, confirm)
	}
	h.invalidate(c, groups)
	return c.SendStatus(fiber.StatusNoContent)
}

// Audit godoc
// @Summary      Comparar stock guardado con el derivado del libro
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ItemAuditResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/audit [get]
func (h *ItemHandler) Audit(c *fiber.Ctx) error {
	out, err := h.ledger.AuditItem(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(dto.ItemAuditResponse{
		ItemID:        out.ItemID,
		StoredStock:   out.StoredStock,
		DerivedStock:  out.DerivedStock,
		MovementCount: out.MovementCount,
		Consistent:    out.Consistent,
	})
}
