package ports

import (
	"context"
	"fmt"
)

// ConfirmAction acción que necesita la aprobación explícita del usuario.
type ConfirmAction string

// Acciones confirmables.
const (
	ConfirmLargeQuantity  ConfirmAction = "large_quantity"
	ConfirmUndo           ConfirmAction = "undo"
	ConfirmDeleteItem     ConfirmAction = "delete_item"
	ConfirmDeleteCategory ConfirmAction = "delete_category"
)

// Prompt describe lo que se va a confirmar. Message es el texto que ve el usuario.
type Prompt struct {
	Action   ConfirmAction
	Subject  string // nombre del producto o categoría
	Quantity int
	Message  string
}

// Confirmer define el puerto de confirmación interactiva.
// La capa de presentación decide cómo preguntar (flag en la petición, diálogo, CLI).
// Las operaciones que lo consultan no escriben nada si devuelve false.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) bool
}

// ConfirmFunc adapta una función a Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) bool

// Confirm implementa Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) bool { return f(ctx, p) }

// Approved es un Confirmer que responde siempre según su valor.
type Approved bool

// Confirm implementa Confirmer.
func (a Approved) Confirm(context.Context, Prompt) bool { return bool(a) }

// Ask consulta c; un Confirmer nil se considera aprobación (llamadas internas o de biblioteca).
func Ask(ctx context.Context, c Confirmer, p Prompt) bool {
	if c == nil {
		return true
	}
	return c.Confirm(ctx, p)
}

// LargeQuantityPrompt texto de confirmación para cantidades grandes.
func LargeQuantityPrompt(actionText string, qty int) Prompt {
	return Prompt{
		Action:   ConfirmLargeQuantity,
		Quantity: qty,
		Message:  fmt.Sprintf("%d adet %s işlemi yapılacak. Onaylıyor musunuz?", qty, actionText),
	}
}

// UndoPrompt texto de confirmación para revertir un movimiento.
func UndoPrompt(actionText, itemName string, qty int) Prompt {
	return Prompt{
		Action:   ConfirmUndo,
		Subject:  itemName,
		Quantity: qty,
		Message:  fmt.Sprintf("Bu %s işlemini geri almak istiyor musunuz?\n\nÜrün: %s\nMiktar: %d", actionText, itemName, qty),
	}
}

// DeleteItemPrompt texto de confirmación para borrar un producto.
func DeleteItemPrompt(name string) Prompt {
	return Prompt{Action: ConfirmDeleteItem, Subject: name, Message: fmt.Sprintf("%q ürünü silinsin mi?", name)}
}

// DeleteCategoryPrompt texto de confirmación para borrar una categoría y sus productos.
func DeleteCategoryPrompt(name string) Prompt {
	return Prompt{Action: ConfirmDeleteCategory, Subject: name, Message: fmt.Sprintf("%q kategorisi ve tüm ürünleri silinsin mi?", name)}
}
