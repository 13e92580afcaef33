package memory

import (
	"context"

	"github.com/fizyostok/stok-api/internal/domain/repository"
)

// TxRunner ejecuta fn de forma atómica sobre la DB en memoria: si fn falla se restaura el snapshot.
type TxRunner struct {
	db *DB
}

// NewTxRunner crea el runner.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run implementa inventory.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	snapshot := r.db.st.clone()
	defer func() {
		if p := recover(); p != nil {
			r.db.st = snapshot
			panic(p)
		}
		if err != nil {
			r.db.st = snapshot
		}
	}()
	return fn(&ItemRepository{db: r.db, inTx: true}, &StockMovementRepository{db: r.db, inTx: true})
}
