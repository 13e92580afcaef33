package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/ledger"
)

func TestApply(t *testing.T) {
	cases := []struct {
		name    string
		current int
		typ     entity.MovementType
		qty     int
		want    int
		wantErr error
	}{
		{"alım suma", 0, entity.MovementPurchase, 10, 10, nil},
		{"satış resta", 10, entity.MovementSale, 4, 6, nil},
		{"satış deja en cero", 6, entity.MovementSale, 6, 0, nil},
		{"satış mayor al stock", 10, entity.MovementSale, 12, 0, domain.ErrInsufficientStock},
		{"cantidad cero", 5, entity.MovementPurchase, 0, 0, domain.ErrInvalidInput},
		{"cantidad negativa", 5, entity.MovementSale, -1, 0, domain.ErrInvalidInput},
		{"tipo desconocido", 5, entity.MovementType("ADJUST"), 1, 0, domain.ErrInvalidInput},
		{"alım llega al máximo", 1, entity.MovementPurchase, ledger.MaxStock - 1, ledger.MaxStock, nil},
		{"alım desborda el máximo", 1, entity.MovementPurchase, ledger.MaxStock, 0, domain.ErrInvalidInput},
		{"cantidad MaxInt", 1, entity.MovementPurchase, math.MaxInt, 0, domain.ErrInvalidInput},
		{"satış cantidad MaxInt", 10, entity.MovementSale, math.MaxInt, 0, domain.ErrInvalidInput},
		{"stock actual fuera de rango", math.MaxInt, entity.MovementSale, 1, 0, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ledger.Apply(tc.current, tc.typ, tc.qty)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "error esperado %v, obtenido %v", tc.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApply_DetalleStockInsuficiente(t *testing.T) {
	_, err := ledger.Apply(10, entity.MovementSale, 12)

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 10, ise.Available)
	assert.Equal(t, 12, ise.Requested)
}

func TestReverse(t *testing.T) {
	assert.Equal(t, entity.MovementSale, ledger.Reverse(entity.MovementPurchase))
	assert.Equal(t, entity.MovementPurchase, ledger.Reverse(entity.MovementSale))
}

// La suma con signo de los movimientos aceptados coincide con el stock resultante.
func TestReplay_CoincideConAplicacionSecuencial(t *testing.T) {
	steps := []struct {
		typ entity.MovementType
		qty int
	}{
		{entity.MovementPurchase, 10},
		{entity.MovementSale, 12}, // rechazado
		{entity.MovementSale, 4},
		{entity.MovementPurchase, 3},
		{entity.MovementSale, 9},
	}

	stock := 0
	var recorded []*entity.StockMovement
	for _, s := range steps {
		next, err := ledger.Apply(stock, s.typ, s.qty)
		if err != nil {
			continue
		}
		stock = next
		recorded = append(recorded, &entity.StockMovement{Type: s.typ, Quantity: s.qty})
	}

	assert.Equal(t, 0, stock)
	assert.Len(t, recorded, 4)
	assert.Equal(t, stock, ledger.Replay(0, recorded))
}
