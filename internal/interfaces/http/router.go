package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fizyostok/stok-api/internal/application/auth"
	"github.com/fizyostok/stok-api/internal/application/history"
	"github.com/fizyostok/stok-api/internal/application/inventory"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/application/usecase"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CategoryUC  *usecase.CategoryUseCase
	ItemUC      *usecase.ItemUseCase
	Ledger      *inventory.StockLedgerUseCase
	History     *history.Service
	Cache       *querycache.Cache
	RateLimiter *RateLimiter // opcional
	Logger      *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	authn := AuthMiddleware(deps.AuthUC)
	protected := []fiber.Handler{authn}
	if deps.RateLimiter != nil {
		protected = append(protected, deps.RateLimiter.Middleware())
	}
	withAuth := func(h fiber.Handler) []fiber.Handler {
		return append(append(make([]fiber.Handler, 0, len(protected)+1), protected...), h)
	}
	authGroup.Post("/logout", withAuth(authHandler.Logout)...)
	authGroup.Get("/me", withAuth(authHandler.Me)...)

	// Categorías
	categories := api.Group("/categories", protected...)
	categoryHandler := NewCategoryHandler(deps.CategoryUC, deps.Cache, log.Named("http.categories"))
	categories.Get("/", categoryHandler.List)
	categories.Post("/", categoryHandler.Create)
	categories.Put("/:id", categoryHandler.Rename)
	categories.Delete("/:id", categoryHandler.Delete)

	// Productos
	items := api.Group("/items", protected...)
	itemHandler := NewItemHandler(deps.ItemUC, deps.Ledger, deps.Cache, log.Named("http.items"))
	movementHandler := NewMovementHandler(deps.Ledger, deps.History, deps.Cache, log.Named("http.movements"))
	items.Get("/", itemHandler.List)
	items.Post("/", itemHandler.Create)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", itemHandler.Rename)
	items.Delete("/:id", itemHandler.Delete)
	items.Get("/:id/audit", itemHandler.Audit)
	items.Post("/:id/movements", movementHandler.Apply)

	// Historial de movimientos
	movements := api.Group("/movements", protected...)
	movements.Get("/", movementHandler.List)
	movements.Get("/export.csv", movementHandler.ExportCSV)
	movements.Get("/export.pdf", movementHandler.ExportPDF)
	movements.Post("/:id/undo", movementHandler.Undo)
}
