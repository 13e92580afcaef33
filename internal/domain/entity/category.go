package entity

import "time"

// Category agrupa productos de un usuario (ej. "Bandajlar", "Elektrotlar").
// Eliminarla borra en cascada sus productos y movimientos (FK en el backend).
type Category struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
