// Package querycache es la capa de consultas con caché: lecturas por (recurso, filtro, usuario),
// tiempo de frescura, un reintento por lectura fallida e invalidación por grupo de recursos.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// Resource grupo de consultas que se invalida en bloque.
type Resource string

// Grupos de recursos.
const (
	Categories     Resource = "categories"
	Items          Resource = "items"
	StockMovements Resource = "stock_movements"
)

// Key identifica una consulta. Filter debe ser canónico (mismo filtro, mismo texto).
type Key struct {
	Resource Resource
	Filter   string
	UserID   string
}

func (k Key) String() string {
	return string(k.Resource) + ":" + k.UserID + ":" + k.Filter
}

// Store almacenamiento de entradas con expiración y contador de generación por recurso.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, resource string) (int64, error)
	Bump(ctx context.Context, resource string) (int64, error)
}

// Options parámetros de la caché.
type Options struct {
	StaleTime time.Duration // por defecto 5 minutos
	Retries   int           // reintentos de una lectura fallida (1 = un reintento)
	Prefix    string        // prefijo de las claves en el store
}

// State estado observable de una consulta.
type State struct {
	IsLoading bool
	Err       error
}

// Result resultado de Fetch. Una respuesta completa (datos o error del backend) trae
// IsLoading en false; IsLoading es true solo cuando el contexto del llamador terminó
// mientras la lectura compartida seguía en curso.
type Result[T any] struct {
	Data      T
	IsLoading bool
	Err       error
	Cached    bool
}

// Cache es el objeto de caché explícito; lo crea y lo posee la capa de presentación.
type Cache struct {
	store     Store
	staleTime time.Duration
	retries   int
	prefix    string
	group     singleflight.Group
	log       *logger.Logger

	mu     sync.Mutex
	states map[string]State
}

// New construye la caché sobre store.
func New(store Store, opts Options, log *logger.Logger) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = 5 * time.Minute
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Prefix == "" {
		opts.Prefix = "qc"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		store:     store,
		staleTime: opts.StaleTime,
		retries:   opts.Retries,
		prefix:    opts.Prefix,
		log:       log,
		states:    make(map[string]State),
	}
}

// StaleTime devuelve el tiempo durante el cual una entrada se sirve sin refetch.
func (c *Cache) StaleTime() time.Duration { return c.staleTime }

// Fetch devuelve la entrada fresca de key o ejecuta fn (con reintento) y la guarda.
// Sin usuario la consulta está deshabilitada: fn no se llama y Err es ErrUnauthorized.
// Llamadas concurrentes a la misma clave comparten una sola ejecución de fn.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) Result[T] {
	if key.UserID == "" {
		return Result[T]{Err: domain.ErrUnauthorized}
	}
	storeKey, err := c.storeKey(ctx, key)
	if err != nil {
		// Sin generación no hay clave fiable: se lee directo del backend.
		c.log.Warn().Err(err).Str("key", key.String()).Msg("querycache: generación no disponible")
		data, ferr := retry(ctx, c.retries, fn)
		return Result[T]{Data: data, Err: ferr}
	}

	if raw, ok, gerr := c.store.Get(ctx, storeKey); gerr == nil && ok {
		var data T
		if uerr := json.Unmarshal(raw, &data); uerr == nil {
			return Result[T]{Data: data, Cached: true}
		}
	} else if gerr != nil {
		c.log.Warn().Err(gerr).Str("key", storeKey).Msg("querycache: lectura del store falló")
	}

	c.setState(key, State{IsLoading: true})
	// La lectura compartida no depende del contexto del primer llamador: si este se va,
	// los demás siguen esperando el mismo resultado.
	sctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(storeKey, func() (interface{}, error) {
		data, err := retry(sctx, c.retries, fn)
		defer func() { c.setState(key, State{Err: err}) }()
		if err != nil {
			return nil, err
		}
		raw, merr := json.Marshal(data)
		if merr == nil {
			if serr := c.store.Set(sctx, storeKey, raw, c.staleTime); serr != nil {
				c.log.Warn().Err(serr).Str("key", storeKey).Msg("querycache: escritura del store falló")
			}
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		// El llamador deja de esperar; la lectura sigue y guardará la entrada.
		return Result[T]{IsLoading: true, Err: ctx.Err()}
	case r := <-ch:
		if r.Err != nil {
			return Result[T]{Err: r.Err}
		}
		data, _ := r.Val.(T)
		return Result[T]{Data: data}
	}
}

// Invalidate marca como obsoletas todas las consultas de los recursos indicados.
func (c *Cache) Invalidate(ctx context.Context, resources ...Resource) error {
	var errs []error
	for _, r := range resources {
		if _, err := c.store.Bump(ctx, c.prefix+":gen:"+string(r)); err != nil {
			errs = append(errs, fmt.Errorf("invalidar %s: %w", r, err))
		}
	}
	return errors.Join(errs...)
}

// State devuelve el estado de carga o el último error de key.
func (c *Cache) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[key.String()]
}

func (c *Cache) setState(key Key, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !s.IsLoading && s.Err == nil {
		delete(c.states, key.String())
		return
	}
	c.states[key.String()] = s
}

func (c *Cache) storeKey(ctx context.Context, key Key) (string, error) {
	gen, err := c.store.Generation(ctx, c.prefix+":gen:"+string(key.Resource))
	if err != nil {
		return "", err
	}
	return strings.Join([]string{c.prefix, string(key.Resource), key.UserID, fmt.Sprintf("g%d", gen), key.Filter}, ":"), nil
}

// retry ejecuta fn hasta 1+retries veces; no reintenta si el contexto terminó
// o si el error es del dominio (entrada inválida, no autorizado, no encontrado).
func retry[T any](ctx context.Context, retries int, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		data T
		err  error
	)
	for attempt := 0; attempt <= retries; attempt++ {
		data, err = fn(ctx)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return data, err
		}
	}
	return data, err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotFound):
		return false
	}
	return true
}
