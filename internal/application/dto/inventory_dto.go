package dto

import "time"

// ApplyMovementRequest body para POST /api/items/:id/movements.
// CurrentStock es el stock que el cliente vio al decidir; el servidor lo verifica.
type ApplyMovementRequest struct {
	Type         string `json:"type" validate:"required,oneof=PURCHASE SALE"`
	Quantity     int    `json:"quantity" validate:"gt=0,max=2147483647"`
	CurrentStock *int   `json:"current_stock" validate:"required,min=0,max=2147483647"`
	Confirmed    bool   `json:"confirmed"`
}

// ApplyMovementResponse resultado de un movimiento.
type ApplyMovementResponse struct {
	NewStock int              `json:"new_stock"`
	Movement MovementResponse `json:"movement"`
}

// UndoMovementRequest body para POST /api/movements/:id/undo.
// item_id, type y quantity son opcionales; si vienen deben coincidir con el movimiento guardado.
type UndoMovementRequest struct {
	ItemID    string `json:"item_id"`
	Type      string `json:"type" validate:"omitempty,oneof=PURCHASE SALE"`
	Quantity  int    `json:"quantity" validate:"min=0,max=2147483647"`
	Confirmed bool   `json:"confirmed"`
}

// UndoMovementResponse resultado de una reversión.
type UndoMovementResponse struct {
	NewStock           int              `json:"new_stock"`
	ReversedMovementID string           `json:"reversed_movement_id"`
	Movement           MovementResponse `json:"movement"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	ItemName   string    `json:"item_name"`
	Type       string    `json:"type"`
	Quantity   int       `json:"quantity"`
	ReversalOf *string   `json:"reversal_of"`
	CreatedAt  time.Time `json:"created_at"`
}

// MovementListQuery filtros del historial.
type MovementListQuery struct {
	ItemID string `query:"item_id"`
	Range  string `query:"range"`
	Limit  int    `query:"limit"`
}

// ItemAuditResponse compara el stock guardado con el derivado del libro.
type ItemAuditResponse struct {
	ItemID        string `json:"item_id"`
	StoredStock   int    `json:"stored_stock"`
	DerivedStock  int    `json:"derived_stock"`
	MovementCount int    `json:"movement_count"`
	Consistent    bool   `json:"consistent"`
}
