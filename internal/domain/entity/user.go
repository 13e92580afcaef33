package entity

import "time"

// User representa una cuenta del sistema. Cada usuario es dueño exclusivo de sus datos.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
