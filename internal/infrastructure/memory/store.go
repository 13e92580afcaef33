// Package memory implementa los puertos de persistencia en memoria, con transacciones
// (snapshot + rollback) e inyección de fallos. Se usa en desarrollo y en tests.
package memory

import (
	"sync"

	"github.com/fizyostok/stok-api/internal/domain/entity"
)

type state struct {
	users      map[string]entity.User
	categories map[string]entity.Category
	items      map[string]entity.Item
	movements  []entity.StockMovement // orden de inserción
}

func newState() *state {
	return &state{
		users:      make(map[string]entity.User),
		categories: make(map[string]entity.Category),
		items:      make(map[string]entity.Item),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	c.movements = append([]entity.StockMovement(nil), s.movements...)
	return c
}

// Operaciones donde se puede inyectar un fallo con FailNext.
const (
	OpItemUpdateStock  = "items.update_stock"
	OpMovementCreate   = "movements.create"
	OpItemGetForUpdate = "items.get_for_update"
	OpMovementList     = "movements.list"
)

// DB base de datos en memoria. Una transacción toma el lock completo,
// lo que equivale a serializar todas las escrituras (más estricto que FOR UPDATE por fila).
type DB struct {
	mu     sync.Mutex
	st     *state
	faults map[string]error
}

// NewDB crea una base vacía.
func NewDB() *DB {
	return &DB{st: newState(), faults: make(map[string]error)}
}

// FailNext hace que la próxima llamada a op devuelva err.
func (db *DB) FailNext(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faults[op] = err
}

// fault consume el fallo inyectado para op. Requiere el lock tomado.
func (db *DB) fault(op string) error {
	if err, ok := db.faults[op]; ok {
		delete(db.faults, op)
		return err
	}
	return nil
}

// view ejecuta fn con el lock tomado, salvo que la llamada ya ocurra dentro de una transacción.
func (db *DB) view(inTx bool, fn func(st *state) error) error {
	if !inTx {
		db.mu.Lock()
		defer db.mu.Unlock()
	}
	return fn(db.st)
}

// Users repositorio de usuarios fuera de transacción.
func (db *DB) Users() *UserRepository { return &UserRepository{db: db} }

// Categories repositorio de categorías fuera de transacción.
func (db *DB) Categories() *CategoryRepository { return &CategoryRepository{db: db} }

// Items repositorio de productos fuera de transacción.
func (db *DB) Items() *ItemRepository { return &ItemRepository{db: db} }

// Movements repositorio del libro fuera de transacción.
func (db *DB) Movements() *StockMovementRepository { return &StockMovementRepository{db: db} }
