// Package history contiene los filtros por fecha del historial de movimientos y sus exportaciones.
package history

import (
	"time"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// DateRange intervalo relativo a la medianoche local.
type DateRange string

// Intervalos soportados.
const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
)

// ParseDateRange valida s; vacío equivale a "all".
func ParseDateRange(s string) (DateRange, error) {
	switch r := DateRange(s); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth:
		return r, nil
	default:
		return "", domain.Invalid("range", "debe ser uno de: all, today, week, month")
	}
}

// Since devuelve la cota inferior del intervalo para el instante now (en la zona de now).
// ok es false para RangeAll (sin cota).
func Since(now time.Time, r DateRange) (since time.Time, ok bool) {
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch r {
	case RangeToday:
		return startOfDay, true
	case RangeWeek:
		return startOfDay.AddDate(0, 0, -7), true
	case RangeMonth:
		return startOfDay.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

// Includes indica si un movimiento creado en createdAt entra en el intervalo.
func Includes(now time.Time, r DateRange, createdAt time.Time) bool {
	since, ok := Since(now, r)
	if !ok {
		return true
	}
	return !createdAt.Before(since)
}

// Filter devuelve los movimientos dentro del intervalo, conservando el orden de entrada.
func Filter(movements []*entity.StockMovement, now time.Time, r DateRange) []*entity.StockMovement {
	since, ok := Since(now, r)
	if !ok {
		return movements
	}
	out := make([]*entity.StockMovement, 0, len(movements))
	for _, m := range movements {
		if !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out
}
