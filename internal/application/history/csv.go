package history

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fizyostok/stok-api/internal/domain/entity"
)

const (
	csvBOM        = "\ufeff"
	csvDateLayout = "02.01.2006 15:04:05"
	unknownItem   = "Bilinmeyen"
)

var csvHeader = []string{"Tarih", "Ürün", "İşlem", "Miktar"}

// ActionLabel etiqueta del tipo de movimiento en los reportes.
func ActionLabel(t entity.MovementType) string {
	if t == entity.MovementPurchase {
		return "Alım"
	}
	return "Satış"
}

// ItemLabel nombre del producto o "Bilinmeyen" si el join no lo trajo.
func ItemLabel(m *entity.StockMovement) string {
	if m.ItemName == "" {
		return unknownItem
	}
	return m.ItemName
}

// Row fila del reporte: fecha en loc, producto, acción y cantidad.
func Row(m *entity.StockMovement, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	return []string{
		m.CreatedAt.In(loc).Format(csvDateLayout),
		ItemLabel(m),
		ActionLabel(m.Type),
		strconv.Itoa(m.Quantity),
	}
}

// WriteCSV escribe los movimientos en el orden recibido: BOM UTF-8, cabecera y una fila por movimiento
// con todos los campos entre comillas, separadas por "\n".
func WriteCSV(w io.Writer, movements []*entity.StockMovement, loc *time.Location) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(csvBOM); err != nil {
		return err
	}
	if _, err := bw.WriteString(strings.Join(csvHeader, ",")); err != nil {
		return err
	}
	for _, m := range movements {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		for i, cell := range Row(m, loc) {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(quote(cell)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// quote encierra cell entre comillas dobles duplicando las internas.
func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// ExportFileName nombre del archivo descargable para la fecha de now.
func ExportFileName(now time.Time, ext string) string {
	return "stok-gecmisi-" + now.Format("2006-01-02") + "." + ext
}
