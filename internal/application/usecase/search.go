package usecase

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fizyostok/stok-api/internal/domain/entity"
)

// foldTR pasa a minúsculas con las reglas del turco ("I" -> "ı", "İ" -> "i").
// cases.Caser no es seguro para uso concurrente: se crea uno por llamada.
func foldTR(s string) string {
	return cases.Lower(language.Turkish).String(strings.TrimSpace(s))
}

// MatchesSearch indica si name contiene query sin distinguir mayúsculas (reglas del turco).
// Una consulta vacía coincide con todo.
func MatchesSearch(name, query string) bool {
	q := foldTR(query)
	if q == "" {
		return true
	}
	return strings.Contains(foldTR(name), q)
}

// FilterItems aplica la búsqueda sobre los productos: si el nombre de la categoría coincide
// se conservan todos sus productos; si no, sólo los productos cuyo nombre coincide.
func FilterItems(items []*entity.Item, categories map[string]*entity.Category, query string) []*entity.Item {
	if foldTR(query) == "" {
		return items
	}
	out := make([]*entity.Item, 0, len(items))
	for _, it := range items {
		if c, ok := categories[it.CategoryID]; ok && MatchesSearch(c.Name, query) {
			out = append(out, it)
			continue
		}
		if MatchesSearch(it.Name, query) {
			out = append(out, it)
		}
	}
	return out
}
