// Package pdf implementa el reporte del historial de movimientos en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + intervalo      │  Fecha de generación     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Tarih | Ürün | İşlem | Miktar                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Toplam alım / Toplam satış                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/fizyostok/stok-api/internal/application/history"
	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 110, Blue: 120}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorSale    = &props.Color{Red: 170, Green: 40, Blue: 40}
)

var _ history.PDFRenderer = (*MarotoHistoryRenderer)(nil)

// MarotoHistoryRenderer implementa history.PDFRenderer usando Maroto v2.
type MarotoHistoryRenderer struct{}

// NewMarotoHistoryRenderer construye el generador.
func NewMarotoHistoryRenderer() *MarotoHistoryRenderer { return &MarotoHistoryRenderer{} }

// Render genera el PDF del reporte y lo escribe en w.
func (g *MarotoHistoryRenderer) Render(ctx context.Context, w io.Writer, r history.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(pdfText(r.Title), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.2}))
	m.AddRows(tableRows(r)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(r)...)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generar documento: %w", err)
	}
	if _, err := w.Write(doc.GetBytes()); err != nil {
		return fmt.Errorf("pdf: escribir documento: %w", err)
	}
	return nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(r history.Report) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(pdfText(r.Title), props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New(pdfText(rangeLabel(r.Range)), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(r.GeneratedAt.In(location(r)).Format("02.01.2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(strconv.Itoa(len(r.Movements))+" kayit", props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(pdfText(label), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Tarih", 3, align.Left),
		h("Ürün", 5, align.Left),
		h("İşlem", 2, align.Center),
		h("Miktar", 2, align.Right),
	)
}

// tableRows una fila por movimiento, en el orden del reporte.
func tableRows(r history.Report) []core.Row {
	loc := location(r)
	result := make([]core.Row, 0, len(r.Movements))
	for _, m := range r.Movements {
		cells := history.Row(m, loc)
		actionStyle := props.Text{Size: 8, Align: align.Center, Top: 1}
		if m.Type != entity.MovementPurchase {
			actionStyle.Color = colorSale
		}
		result = append(result, row.New(6).Add(
			col.New(3).Add(text.New(cells[0], props.Text{Size: 8, Top: 1})),
			col.New(5).Add(text.New(pdfText(cells[1]), props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(pdfText(cells[2]), actionStyle)),
			col.New(2).Add(text.New(cells[3], props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return result
}

func totalsRows(r history.Report) []core.Row {
	purchased, sold := r.Totals()
	total := func(label string, value int, color *props.Color) core.Row {
		return row.New(6).Add(
			col.New(6),
			col.New(4).Add(text.New(pdfText(label), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 1,
			})),
			col.New(2).Add(text.New(strconv.Itoa(value), props.Text{
				Size: 9, Align: align.Right, Top: 1, Color: color,
			})),
		)
	}
	return []core.Row{
		total("Toplam alım:", purchased, nil),
		total("Toplam satış:", sold, colorSale),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// La fuente core helvetica usa cp1252: las letras turcas que no existen ahí se transliteran.
var turkishToLatin1 = strings.NewReplacer(
	"ş", "s", "Ş", "S",
	"ğ", "g", "Ğ", "G",
	"ı", "i", "İ", "I",
)

func pdfText(s string) string { return turkishToLatin1.Replace(s) }

func rangeLabel(r history.DateRange) string {
	switch r {
	case history.RangeToday:
		return "Bugün"
	case history.RangeWeek:
		return "Son 7 gün"
	case history.RangeMonth:
		return "Son 1 ay"
	default:
		return "Tüm kayıtlar"
	}
}

func location(r history.Report) *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}
