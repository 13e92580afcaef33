package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fizyostok/stok-api/internal/application/auth"
	"github.com/fizyostok/stok-api/internal/application/history"
	"github.com/fizyostok/stok-api/internal/application/inventory"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/application/usecase"
	infracache "github.com/fizyostok/stok-api/internal/infrastructure/cache"
	infrapdf "github.com/fizyostok/stok-api/internal/infrastructure/pdf"
	"github.com/fizyostok/stok-api/internal/infrastructure/postgres"
	httpRouter "github.com/fizyostok/stok-api/internal/interfaces/http"
	"github.com/fizyostok/stok-api/pkg/config"
	"github.com/fizyostok/stok-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	loc := time.Local
	if cfg.App.Timezone != "" {
		if l, err := time.LoadLocation(cfg.App.Timezone); err == nil {
			loc = l
		} else {
			log.Warn().Err(err).Str("timezone", cfg.App.Timezone).Msg("zona horaria inválida, se usa la local")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Fizyostok API",
		}))
	}

	cleanup := setup(context.Background(), app, cfg, loc, log)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i]()
	}

	log.Info().Msg("aplicación detenida")
}

// startupTimeout tope para conectar con el backend al arrancar.
const startupTimeout = 15 * time.Second

// setup registra /health y, si la configuración está completa y el backend responde, la API.
// Cualquier fallo deja el proceso vivo con /api respondiendo 503.
func setup(ctx context.Context, app *fiber.App, cfg *config.Config, loc *time.Location, log *logger.Logger) []func() {
	d := httpRouter.Degradation{Missing: cfg.Missing()}
	var cleanup []func()
	if d.Active() {
		log.Error().Strs("missing", d.Missing).Msg("configuración incompleta, arrancando en modo degradado")
	} else {
		startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		c, err := wire(startCtx, app, cfg, loc, log)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("backend no disponible, arrancando en modo degradado")
			d.Reason = err.Error()
		}
		cleanup = c
	}

	app.Get("/health", httpRouter.Health(cfg.App.Name, d))
	if d.Active() {
		app.Use("/api", httpRouter.BackendUnavailable(d))
	}
	return cleanup
}

// wire conecta backend, caché y casos de uso y registra las rutas. Devuelve los cierres pendientes;
// si falla no registra nada y libera lo que haya abierto.
func wire(ctx context.Context, app *fiber.App, cfg *config.Config, loc *time.Location, log *logger.Logger) (cleanup []func(), err error) {
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
			cleanup = nil
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return cleanup, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	cleanup = append(cleanup, pool.Close)
	if err := postgres.Migrate(ctx, pool); err != nil {
		return cleanup, fmt.Errorf("migración del esquema: %w", err)
	}

	// Store de la caché de consultas y de tokens revocados: Redis si está configurado, si no memoria.
	var store interface {
		querycache.Store
		auth.RevocationStore
	}
	if cfg.Cache.RedisURL != "" {
		client, rerr := infracache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if rerr != nil {
			// Redis es opcional: sin él la caché y las revocaciones quedan locales a esta instancia.
			log.Warn().Err(rerr).Msg("Redis no disponible, caché de consultas en memoria")
			store = infracache.NewMemoryStore(nil)
		} else {
			redisStore := infracache.NewRedisStore(client)
			cleanup = append(cleanup, func() { _ = redisStore.Close() })
			store = redisStore
		}
	} else {
		log.Warn().Msg("REDIS_URL no definido, caché de consultas en memoria")
		store = infracache.NewMemoryStore(nil)
	}

	qc := querycache.New(store, querycache.Options{
		StaleTime: time.Duration(cfg.Cache.StaleMinutes) * time.Minute,
		Retries:   cfg.Cache.ReadRetries,
	}, log.Named("querycache"))

	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(userRepo, store, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Named("auth"))
	categoryUC := usecase.NewCategoryUseCase(categoryRepo, log.Named("categories"))
	itemUC := usecase.NewItemUseCase(itemRepo, categoryRepo, log.Named("items"))
	ledger := inventory.NewStockLedgerUseCase(txRunner, itemRepo, movementRepo, inventory.Options{
		ConfirmThreshold: cfg.Ledger.ConfirmThreshold,
		Logger:           log.Named("ledger"),
	})

	// PDF: reporte del historial de movimientos
	pdfRenderer := infrapdf.NewMarotoHistoryRenderer()
	historySvc := history.NewService(movementRepo, pdfRenderer, history.Options{
		Location: loc,
		Limit:    cfg.Ledger.HistoryLimit,
		Logger:   log.Named("history"),
	})

	limiter := httpRouter.NewRateLimiter(cfg.HTTP.RateLimitPerMinute, cfg.HTTP.RateLimitBurst, log.Named("ratelimit"))
	cleanup = append(cleanup, limiter.Stop)

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CategoryUC:  categoryUC,
		ItemUC:      itemUC,
		Ledger:      ledger,
		History:     historySvc,
		Cache:       qc,
		RateLimiter: limiter,
		Logger:      log,
	})
	return cleanup, nil
}
