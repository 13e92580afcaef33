package entity

import "time"

// Item representa un material del inventario.
// Stock está materializado: siempre igual a la suma con signo de sus movimientos y nunca negativo.
type Item struct {
	ID         string
	UserID     string
	CategoryID string
	Name       string
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
