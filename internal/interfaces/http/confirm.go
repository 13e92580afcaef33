package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/ports"
)

// requestConfirmer responde a las confirmaciones con lo que trajo la petición
// y guarda el último texto consultado para devolverlo en el 428.
type requestConfirmer struct {
	approved bool
	prompt   *ports.Prompt
}

func (r *requestConfirmer) Confirm(_ context.Context, p ports.Prompt) bool {
	r.prompt = &p
	return r.approved
}

// confirmerFor lee ?confirm=true o el campo "confirmed" del cuerpo.
func confirmerFor(c *fiber.Ctx, bodyConfirmed bool) *requestConfirmer {
	approved := bodyConfirmed
	if v := c.Query("confirm"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			approved = true
		}
	}
	return &requestConfirmer{approved: approved}
}
