package dto

import "time"

// CategoryRequest body para crear o renombrar una categoría.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateItemRequest body para crear un producto dentro de una categoría.
type CreateItemRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=200"`
}

// RenameItemRequest body para renombrar un producto.
type RenameItemRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// ItemResponse salida de un producto.
type ItemResponse struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ItemListQuery filtros de listado de productos.
type ItemListQuery struct {
	CategoryID string `query:"category_id"`
	Search     string `query:"q"`
}
