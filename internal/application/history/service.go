package history

import (
	"context"
	"io"
	"time"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/repository"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// Límites de la consulta de historial.
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Query filtros de la consulta de historial.
type Query struct {
	ItemID string
	Range  DateRange
	Limit  int
}

// Service lista y exporta el historial de movimientos de un usuario.
type Service struct {
	movRepo repository.StockMovementRepository
	pdf     PDFRenderer
	loc     *time.Location
	limit   int
	now     func() time.Time
	log     *logger.Logger
}

// Options parámetros opcionales del servicio.
type Options struct {
	Location *time.Location // zona de los límites de día y de las fechas exportadas
	Limit    int
	Now      func() time.Time
	Logger   *logger.Logger
}

// NewService construye el servicio. pdf puede ser nil (la exportación PDF queda deshabilitada).
func NewService(movRepo repository.StockMovementRepository, pdf PDFRenderer, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Limit <= 0 || opts.Limit > MaxLimit {
		opts.Limit = DefaultLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Service{movRepo: movRepo, pdf: pdf, loc: opts.Location, limit: opts.Limit, now: opts.Now, log: opts.Logger}
}

// Location zona horaria usada por el servicio.
func (s *Service) Location() *time.Location { return s.loc }

// List devuelve los movimientos más recientes primero, acotados por q.
func (s *Service) List(ctx context.Context, userID string, q Query) ([]*entity.StockMovement, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if q.Range == "" {
		q.Range = RangeAll
	}
	if _, err := ParseDateRange(string(q.Range)); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.limit
	}
	if limit > MaxLimit {
		return nil, domain.Invalid("limit", "no puede superar 500")
	}
	now := s.now().In(s.loc)
	filter := repository.MovementFilter{UserID: userID, ItemID: q.ItemID, Limit: limit}
	if since, ok := Since(now, q.Range); ok {
		filter.Since = &since
	}
	movs, err := s.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	// El backend ya filtra por fecha; el predicado local garantiza el mismo límite de día.
	return Filter(movs, now, q.Range), nil
}

// ExportCSV escribe el historial filtrado en w y devuelve el nombre de archivo y el número de filas.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, userID string, q Query) (string, int, error) {
	movs, err := s.List(ctx, userID, q)
	if err != nil {
		return "", 0, err
	}
	if err := WriteCSV(w, movs, s.loc); err != nil {
		return "", 0, err
	}
	s.log.Info().Str("user_id", userID).Int("rows", len(movs)).Str("range", string(q.Range)).Msg("historial exportado a CSV")
	return ExportFileName(s.now().In(s.loc), "csv"), len(movs), nil
}

// ExportPDF renderiza el historial filtrado como PDF.
func (s *Service) ExportPDF(ctx context.Context, w io.Writer, userID string, q Query) (string, int, error) {
	if s.pdf == nil {
		return "", 0, domain.Invalid("format", "exportación PDF no disponible")
	}
	movs, err := s.List(ctx, userID, q)
	if err != nil {
		return "", 0, err
	}
	now := s.now().In(s.loc)
	if q.Range == "" {
		q.Range = RangeAll
	}
	report := Report{
		Title:       "Stok Geçmişi",
		Range:       q.Range,
		GeneratedAt: now,
		Location:    s.loc,
		Movements:   movs,
	}
	if err := s.pdf.Render(ctx, w, report); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("error generando PDF del historial")
		return "", 0, err
	}
	return ExportFileName(now, "pdf"), len(movs), nil
}
