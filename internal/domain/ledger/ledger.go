// Package ledger contiene la aritmética del libro de stock (servicio de dominio puro).
// Estados: niveles de stock >= 0. Transiciones: +cantidad (alım) o -cantidad (satış),
// siempre sujetas a la invariante de no negatividad.
package ledger

import (
	"fmt"
	"math"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// MaxStock tope del stock de un producto (columna INTEGER del backend).
const MaxStock = math.MaxInt32

// Apply calcula el nuevo stock tras aplicar un movimiento sobre current.
// Devuelve ErrInvalidInput si quantity <= 0 o el tipo es desconocido, y
// InsufficientStockError si el resultado sería negativo. Un alım que superaría MaxStock
// es ErrInvalidInput.
func Apply(current int, typ entity.MovementType, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.Invalid("quantity", "la cantidad debe ser mayor que 0")
	}
	if quantity > MaxStock {
		return 0, domain.Invalid("quantity", fmt.Sprintf("la cantidad no puede superar %d", MaxStock))
	}
	if current < 0 || current > MaxStock {
		return 0, domain.Invalid("current_stock", fmt.Sprintf("el stock debe estar entre 0 y %d", MaxStock))
	}
	switch typ {
	case entity.MovementPurchase:
		if quantity > MaxStock-current {
			return 0, domain.Invalid("quantity", fmt.Sprintf("el stock resultante superaría %d", MaxStock))
		}
		return current + quantity, nil
	case entity.MovementSale:
		if quantity > current {
			return 0, &domain.InsufficientStockError{Available: current, Requested: quantity}
		}
		return current - quantity, nil
	default:
		return 0, domain.Invalid("type", "tipo de movimiento desconocido")
	}
}

// Reverse devuelve el tipo opuesto (PURCHASE <-> SALE).
func Reverse(typ entity.MovementType) entity.MovementType {
	if typ == entity.MovementPurchase {
		return entity.MovementSale
	}
	return entity.MovementPurchase
}

// Replay reconstruye el stock a partir de un valor inicial y la suma con signo de movements.
// No valida la no negatividad intermedia: sirve para auditar, no para decidir.
func Replay(initial int, movements []*entity.StockMovement) int {
	stock := initial
	for _, m := range movements {
		stock += m.Signed()
	}
	return stock
}
