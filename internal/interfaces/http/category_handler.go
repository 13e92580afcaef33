package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/application/usecase"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// handlerBase dependencias comunes de los handlers de datos.
type handlerBase struct {
	cache *querycache.Cache
	log   *logger.Logger
}

// CategoryHandler maneja las peticiones HTTP para categorías (protegido).
type CategoryHandler struct {
	handlerBase
	uc *usecase.CategoryUseCase
}

// NewCategoryHandler construye el handler.
func NewCategoryHandler(uc *usecase.CategoryUseCase, cache *querycache.Cache, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{handlerBase: handlerBase{cache: cache, log: log}, uc: uc}
}

// List godoc
// @Summary      Listar categorías
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.QueryResponse
// @Router       /api/categories [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	key := querycache.Key{Resource: querycache.Categories, UserID: userID}
	return serveQuery(c, h.cache, key, func(ctx context.Context) ([]dto.CategoryResponse, error) {
		return h.uc.List(ctx, userID)
	})
}

// Create godoc
// @Summary      Crear categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryRequest  true  "Nombre"
// @Success      201   {object}  dto.CategoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err, nil)
	}
	h.invalidate(c, out.Invalidate)
	return c.Status(fiber.StatusCreated).JSON(out.Category)
}

// Rename godoc
// @Summary      Renombrar categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la categoría"
// @Param        body  body  dto.CategoryRequest  true  "Nuevo nombre"
// @Success      200   {object}  dto.CategoryResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) Rename(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Rename(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err, nil)
	}
	h.invalidate(c, out.Invalidate)
	return c.JSON(out.Category)
}

// Delete godoc
// @Summary      Borrar categoría y sus productos
// @Tags         categories
// @Security     Bearer
// @Param        id       path   string  true   "ID de la categoría"
// @Param        confirm  query  bool    false  "Confirmación explícita"
// @Success      204
// @Failure      428  {object}  dto.ConfirmationResponse
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	confirm := confirmerFor(c, false)
	groups, err := h.uc.Delete(c.UserContext(), GetUserID(c), c.Params("id"), confirm)
	if err != nil {
		return writeError(c, err, confirm)
	}
	h.invalidate(c, groups)
	return c.SendStatus(fiber.StatusNoContent)
}
