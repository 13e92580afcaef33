package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fizyostok/stok-api/internal/application/history"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/infrastructure/pdf"
)

func TestMarotoHistoryRenderer_Render(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	name := "Kinesyo bant"
	r := history.Report{
		Title:       "Stok Geçmişi",
		Range:       history.RangeWeek,
		GeneratedAt: now,
		Location:    time.UTC,
		Movements: []*entity.StockMovement{
			{ID: "m2", ItemID: "i1", ItemName: name, Type: entity.MovementSale, Quantity: 3, CreatedAt: now},
			{ID: "m1", ItemID: "i1", ItemName: name, Type: entity.MovementPurchase, Quantity: 10, CreatedAt: now.Add(-time.Hour)},
		},
	}

	var buf bytes.Buffer
	err := pdf.NewMarotoHistoryRenderer().Render(context.Background(), &buf, r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestMarotoHistoryRenderer_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := pdf.NewMarotoHistoryRenderer().Render(ctx, &buf, history.Report{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
