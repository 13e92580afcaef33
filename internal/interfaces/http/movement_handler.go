package http

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/application/history"
	"github.com/fizyostok/stok-api/internal/application/inventory"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// MovementHandler maneja alım/satış, geri al e historial (protegido).
type MovementHandler struct {
	handlerBase
	ledger  *inventory.StockLedgerUseCase
	history *history.Service
}

// NewMovementHandler construye el handler.
func NewMovementHandler(ledger *inventory.StockLedgerUseCase, hist *history.Service, cache *querycache.Cache, log *logger.Logger) *MovementHandler {
	return &MovementHandler{handlerBase: handlerBase{cache: cache, log: log}, ledger: ledger, history: hist}
}

// Apply godoc
// @Summary      Registrar alım o satış
// @Description  current_stock es el stock que vio el cliente; si cambió, responde 409 STALE_STOCK.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path   string                     true   "ID del producto"
// @Param        confirm  query  bool                       false  "Confirmación explícita"
// @Param        body     body   dto.ApplyMovementRequest   true   "type, quantity, current_stock"
// @Success      201  {object}  dto.ApplyMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      428  {object}  dto.ConfirmationResponse
// @Router       /api/items/{id}/movements [post]
func (h *MovementHandler) Apply(c *fiber.Ctx) error {
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	confirm := confirmerFor(c, in.Confirmed)
	out, err := h.ledger.ApplyMovementFromRequest(c.UserContext(), GetUserID(c), c.Params("id"), in, confirm)
	if err != nil {
		return writeError(c, err, confirm)
	}
	h.invalidate(c, out.Invalidate)
	return c.Status(fiber.StatusCreated).JSON(dto.ApplyMovementResponse{
		NewStock: out.NewStock,
		Movement: inventory.ToMovementResponse(out.Movement),
	})
}

// Undo godoc
// @Summary      Revertir un movimiento (geri al)
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path   string                   true   "ID del movimiento"
// @Param        confirm  query  bool                     false  "Confirmación explícita"
// @Param        body     body   dto.UndoMovementRequest  false  "Datos opcionales de verificación"
// @Success      201  {object}  dto.UndoMovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      428  {object}  dto.ConfirmationResponse
// @Router       /api/movements/{id}/undo [post]
func (h *MovementHandler) Undo(c *fiber.Ctx) error {
	var in dto.UndoMovementRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	confirm := confirmerFor(c, in.Confirmed)
	out, err := h.ledger.UndoMovementFromRequest(c.UserContext(), GetUserID(c), c.Params("id"), in, confirm)
	if err != nil {
		return writeError(c, err, confirm)
	}
	h.invalidate(c, out.Invalidate)
	return c.Status(fiber.StatusCreated).JSON(dto.UndoMovementResponse{
		NewStock:           out.NewStock,
		ReversedMovementID: out.ReversedMovementID,
		Movement:           inventory.ToMovementResponse(out.Movement),
	})
}

// List godoc
// @Summary      Historial de movimientos (más recientes primero)
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        item_id  query  string  false  "Filtrar por producto"
// @Param        range    query  string  false  "all, today, week, month"
// @Param        limit    query  int     false  "Máximo 500"  default(100)
// @Success      200  {object}  dto.QueryResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	q, err := parseHistoryQuery(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	userID := GetUserID(c)
	filter := url.Values{
		"item_id": {q.ItemID},
		"range":   {string(q.Range)},
		"limit":   {strconv.Itoa(q.Limit)},
	}.Encode()
	key := querycache.Key{Resource: querycache.StockMovements, Filter: filter, UserID: userID}
	return serveQuery(c, h.cache, key, func(ctx context.Context) ([]dto.MovementResponse, error) {
		movs, err := h.history.List(ctx, userID, q)
		if err != nil {
			return nil, err
		}
		out := make([]dto.MovementResponse, 0, len(movs))
		for _, m := range movs {
			out = append(out, inventory.ToMovementResponse(m))
		}
		return out, nil
	})
}

// ExportCSV godoc
// @Summary      Exportar historial a CSV (UTF-8 con BOM)
// @Tags         movements
// @Security     Bearer
// @Produce      text/csv
// @Param        item_id  query  string  false  "Filtrar por producto"
// @Param        range    query  string  false  "all, today, week, month"
// @Success      200
// @Router       /api/movements/export.csv [get]
func (h *MovementHandler) ExportCSV(c *fiber.Ctx) error {
	return h.export(c, "text/csv; charset=utf-8", h.history.ExportCSV)
}

// ExportPDF godoc
// @Summary      Exportar historial a PDF
// @Tags         movements
// @Security     Bearer
// @Produce      application/pdf
// @Param        item_id  query  string  false  "Filtrar por producto"
// @Param        range    query  string  false  "all, today, week, month"
// @Success      200
// @Router       /api/movements/export.pdf [get]
func (h *MovementHandler) ExportPDF(c *fiber.Ctx) error {
	return h.export(c, "application/pdf", h.history.ExportPDF)
}

type exportFunc func(ctx context.Context, w io.Writer, userID string, q history.Query) (string, int, error)

func (h *MovementHandler) export(c *fiber.Ctx, contentType string, fn exportFunc) error {
	q, err := parseHistoryQuery(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	var buf bytes.Buffer
	name, _, err := fn(c.UserContext(), &buf, GetUserID(c), q)
	if err != nil {
		return writeError(c, err, nil)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}

func parseHistoryQuery(c *fiber.Ctx) (history.Query, error) {
	var in dto.MovementListQuery
	if err := c.QueryParser(&in); err != nil {
		return history.Query{}, domain.Invalid("query", "parámetros inválidos")
	}
	r, err := history.ParseDateRange(in.Range)
	if err != nil {
		return history.Query{}, err
	}
	return history.Query{ItemID: in.ItemID, Range: r, Limit: in.Limit}, nil
}
