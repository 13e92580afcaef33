package entity

import "time"

// MovementType tipo de movimiento de stock.
type MovementType string

// Tipos de movimiento.
const (
	MovementPurchase MovementType = "PURCHASE" // alım: suma stock
	MovementSale     MovementType = "SALE"     // satış: resta stock
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	return t == MovementPurchase || t == MovementSale
}

// StockMovement es una entrada inmutable del libro de movimientos.
// Quantity siempre es positiva; el signo lo da Type.
// ReversalOf apunta al movimiento que esta entrada revierte (nil si es orgánico).
type StockMovement struct {
	ID         string
	UserID     string
	ItemID     string
	ItemName   string // solo lectura (join con items)
	Type       MovementType
	Quantity   int
	ReversalOf *string
	CreatedAt  time.Time
}

// IsReversal indica si el movimiento es una reversión ("geri al").
func (m *StockMovement) IsReversal() bool {
	return m.ReversalOf != nil && *m.ReversalOf != ""
}

// Signed devuelve la cantidad con signo (+ alım, - satış).
func (m *StockMovement) Signed() int {
	if m.Type == MovementSale {
		return -m.Quantity
	}
	return m.Quantity
}
