package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/application/querycache"
)

// serveQuery resuelve una lectura a través de la caché y responde con el sobre {data, is_loading, error}.
func serveQuery[T any](c *fiber.Ctx, cache *querycache.Cache, key querycache.Key, fn func(ctx context.Context) (T, error)) error {
	res := querycache.Fetch(c.UserContext(), cache, key, fn)
	if res.Err != nil {
		status, body := toErrorResponse(res.Err)
		return c.Status(status).JSON(dto.QueryResponse{IsLoading: res.IsLoading, Error: body})
	}
	return c.JSON(dto.QueryResponse{Data: res.Data, IsLoading: res.IsLoading, Cached: res.Cached})
}

// invalidate marca como obsoletos los grupos tocados por una mutación.
// Un fallo del store no deshace la escritura ya confirmada: solo se registra.
func (h *handlerBase) invalidate(c *fiber.Ctx, groups []querycache.Resource) {
	if len(groups) == 0 {
		return
	}
	if err := h.cache.Invalidate(c.UserContext(), groups...); err != nil {
		h.log.Warn().Err(err).Msg("no se pudo invalidar la caché de consultas")
	}
}
