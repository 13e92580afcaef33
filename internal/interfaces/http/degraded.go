package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/dto"
)

// Degradation describe por qué la API no puede atender: claves de configuración
// ausentes o un backend configurado que no respondió al arrancar.
type Degradation struct {
	Missing []string
	Reason  string
}

// Active indica si el servicio está degradado.
func (d Degradation) Active() bool {
	return len(d.Missing) > 0 || d.Reason != ""
}

func (d Degradation) errorResponse() dto.ErrorResponse {
	if len(d.Missing) > 0 {
		return dto.ErrorResponse{
			Code:    "BACKEND_NOT_CONFIGURED",
			Message: "backend no configurado: faltan " + strings.Join(d.Missing, ", "),
		}
	}
	return dto.ErrorResponse{
		Code:    "BACKEND_UNAVAILABLE",
		Message: "backend no disponible: " + d.Reason,
	}
}

// BackendUnavailable responde 503 a toda la API cuando el servicio está degradado.
// El proceso sigue vivo para que /health pueda informar el problema.
func BackendUnavailable(d Degradation) fiber.Handler {
	body := d.errorResponse()
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
}

// Health informa el estado del servicio: "ok" o "degraded" con las claves ausentes o el motivo.
func Health(service string, d Degradation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !d.Active() {
			return c.JSON(fiber.Map{"status": "ok", "service": service})
		}
		out := fiber.Map{"status": "degraded", "service": service}
		if len(d.Missing) > 0 {
			out["missing"] = d.Missing
		}
		if d.Reason != "" {
			out["reason"] = d.Reason
		}
		return c.JSON(out)
	}
}
