package history

import (
	"context"
	"io"
	"time"

	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// Report datos de una exportación del historial.
type Report struct {
	Title       string
	Range       DateRange
	GeneratedAt time.Time
	Location    *time.Location
	Movements   []*entity.StockMovement
}

// PDFRenderer puerto de salida para el reporte en PDF.
type PDFRenderer interface {
	Render(ctx context.Context, w io.Writer, r Report) error
}

// Totals suma de unidades compradas y vendidas del reporte.
func (r Report) Totals() (purchased, sold int) {
	for _, m := range r.Movements {
		if m.Type == entity.MovementPurchase {
			purchased += m.Quantity
		} else {
			sold += m.Quantity
		}
	}
	return purchased, sold
}
