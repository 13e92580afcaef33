package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/repository"
	"github.com/fizyostok/stok-api/internal/infrastructure/memory"
)

func seed(t *testing.T, db *memory.DB) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, db.Categories().Create(ctx, &entity.Category{ID: "c1", UserID: "u1", Name: "Bandajlar", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, db.Items().Create(ctx, &entity.Item{ID: "i1", UserID: "u1", CategoryID: "c1", Name: "Kinesyo bant", Stock: 5, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, db.Movements().Create(ctx, &entity.StockMovement{ID: "m1", UserID: "u1", ItemID: "i1", Type: entity.MovementPurchase, Quantity: 5, CreatedAt: now}))
}

func TestTxRunner_RollbackRestauraStock(t *testing.T) {
	db := memory.NewDB()
	seed(t, db)
	ctx := context.Background()
	runner := memory.NewTxRunner(db)

	boom := errors.New("insert falló")
	err := runner.Run(ctx, func(items repository.ItemRepository, movs repository.StockMovementRepository) error {
		require.NoError(t, items.UpdateStock(ctx, "u1", "i1", 2, time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	it, err := db.Items().GetByID(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.Equal(t, 5, it.Stock)
}

func TestTxRunner_FalloInyectado(t *testing.T) {
	db := memory.NewDB()
	seed(t, db)
	ctx := context.Background()
	db.FailNext(memory.OpMovementCreate, domain.Transport("insert", errors.New("network down")))

	err := memory.NewTxRunner(db).Run(ctx, func(items repository.ItemRepository, movs repository.StockMovementRepository) error {
		if err := items.UpdateStock(ctx, "u1", "i1", 8, time.Now()); err != nil {
			return err
		}
		return movs.Create(ctx, &entity.StockMovement{ID: "m2", UserID: "u1", ItemID: "i1", Type: entity.MovementPurchase, Quantity: 3, CreatedAt: time.Now()})
	})
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))

	it, _ := db.Items().GetByID(ctx, "u1", "i1")
	assert.Equal(t, 5, it.Stock)
	movs, _ := db.Movements().ListByItem(ctx, "u1", "i1")
	assert.Len(t, movs, 1)
}

func TestCategoryDelete_Cascada(t *testing.T) {
	db := memory.NewDB()
	seed(t, db)
	ctx := context.Background()

	require.NoError(t, db.Categories().Delete(ctx, "u1", "c1"))
	_, err := db.Items().GetByID(ctx, "u1", "i1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	movs, err := db.Movements().List(ctx, repository.MovementFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestOwnerScoping(t *testing.T) {
	db := memory.NewDB()
	seed(t, db)
	ctx := context.Background()

	_, err := db.Items().GetByID(ctx, "u2", "i1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = db.Movements().GetByID(ctx, "u2", "m1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	cats, err := db.Categories().ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestMovementList_OrdenYFiltros(t *testing.T) {
	db := memory.NewDB()
	seed(t, db)
	ctx := context.Background()
	base := time.Now()
	for i, id := range []string{"m2", "m3", "m4"} {
		require.NoError(t, db.Movements().Create(ctx, &entity.StockMovement{
			ID: id, UserID: "u1", ItemID: "i1", Type: entity.MovementSale, Quantity: 1,
			CreatedAt: base.Add(time.Duration(i+1) * time.Hour),
		}))
	}

	all, err := db.Movements().List(ctx, repository.MovementFilter{UserID: "u1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "m4", all[0].ID)
	assert.Equal(t, "m3", all[1].ID)
	assert.Equal(t, "Kinesyo bant", all[0].ItemName)

	since := base.Add(90 * time.Minute)
	recent, err := db.Movements().List(ctx, repository.MovementFilter{UserID: "u1", Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestMovementCreate_ReversionUnica(t *testing.T) {
	db := memory.NewDB()
	seed(t, db)
	ctx := context.Background()
	of := "m1"
	require.NoError(t, db.Movements().Create(ctx, &entity.StockMovement{ID: "r1", UserID: "u1", ItemID: "i1", Type: entity.MovementSale, Quantity: 5, ReversalOf: &of, CreatedAt: time.Now()}))
	err := db.Movements().Create(ctx, &entity.StockMovement{ID: "r2", UserID: "u1", ItemID: "i1", Type: entity.MovementSale, Quantity: 5, ReversalOf: &of, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)

	rev, err := db.Movements().GetReversal(ctx, "u1", "m1")
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, "r1", rev.ID)
}

func TestUserRepository_EmailUnico(t *testing.T) {
	db := memory.NewDB()
	ctx := context.Background()
	require.NoError(t, db.Users().Create(ctx, &entity.User{ID: "u1", Email: "Fizyo@Example.com"}))
	err := db.Users().Create(ctx, &entity.User{ID: "u2", Email: "fizyo@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	u, err := db.Users().GetByEmail(ctx, "FIZYO@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}
