package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fizyostok/stok-api/internal/application/auth"
	"github.com/fizyostok/stok-api/internal/application/dto"
	"github.com/fizyostok/stok-api/internal/application/history"
	"github.com/fizyostok/stok-api/internal/application/inventory"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/application/usecase"
	"github.com/fizyostok/stok-api/internal/infrastructure/cache"
	"github.com/fizyostok/stok-api/internal/infrastructure/memory"
	apphttp "github.com/fizyostok/stok-api/internal/interfaces/http"
)

type apiFixture struct {
	app   *fiber.App
	db    *memory.DB
	token string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	db := memory.NewDB()
	store := cache.NewMemoryStore(nil)
	qc := querycache.New(store, querycache.Options{StaleTime: time.Minute, Retries: 1}, nil)

	authUC := auth.NewAuthUseCase(db.Users(), store, auth.JWTConfig{
		Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
	}, nil)
	ledger := inventory.NewStockLedgerUseCase(memory.NewTxRunner(db), db.Items(), db.Movements(), inventory.Options{})
	hist := history.NewService(db.Movements(), nil, history.Options{Location: time.UTC})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:     authUC,
		CategoryUC: usecase.NewCategoryUseCase(db.Categories(), nil),
		ItemUC:     usecase.NewItemUseCase(db.Items(), db.Categories(), nil),
		Ledger:     ledger,
		History:    hist,
		Cache:      qc,
	})

	f := &apiFixture{app: app, db: db}
	resp, _ := f.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email": testEmail, "password": "secreto1", "confirm_password": "secreto1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var login dto.LoginResponse
	resp, body := f.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": testEmail, "password": "secreto1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &login))
	f.token = login.Token
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}

type envelope struct {
	Data      json.RawMessage    `json:"data"`
	IsLoading bool               `json:"is_loading"`
	Cached    bool               `json:"cached"`
	Error     *dto.ErrorResponse `json:"error"`
}

func (f *apiFixture) query(t *testing.T, path string, out any) envelope {
	t.Helper()
	resp, body := f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.Nil(t, env.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

// seedItem crea "Bandajlar" / "Kinesyo bant" y devuelve el id del producto.
func (f *apiFixture) seedItem(t *testing.T) string {
	t.Helper()
	var cat dto.CategoryResponse
	resp, body := f.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Bandajlar"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &cat))

	var item dto.ItemResponse
	resp, body = f.do(t, http.MethodPost, "/api/items", map[string]any{"category_id": cat.ID, "name": "Kinesyo bant"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, 0, item.Stock)
	return item.ID
}

func (f *apiFixture) apply(t *testing.T, itemID, typ string, qty, current int, query string) (*http.Response, []byte) {
	t.Helper()
	return f.do(t, http.MethodPost, "/api/items/"+itemID+"/movements"+query, map[string]any{
		"type": typ, "quantity": qty, "current_stock": current,
	})
}

func TestAPI_AlimYSatis(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)

	resp, body := f.apply(t, itemID, "PURCHASE", 10, 0, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.ApplyMovementResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 10, out.NewStock)
	assert.Equal(t, "Kinesyo bant", out.Movement.ItemName)

	resp, body = f.apply(t, itemID, "SALE", 4, 10, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var items []dto.ItemResponse
	f.query(t, "/api/items", &items)
	require.Len(t, items, 1)
	assert.Equal(t, 6, items[0].Stock)
}

func TestAPI_StockInsuficiente409(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)

	resp, body := f.apply(t, itemID, "SALE", 1, 0, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_STOCK")
}

func TestAPI_DobleEnvioConStockViejo(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)
	resp, _ := f.apply(t, itemID, "PURCHASE", 10, 0, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = f.apply(t, itemID, "SALE", 3, 10, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body := f.apply(t, itemID, "SALE", 3, 10, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "STALE_STOCK")

	var item dto.ItemResponse
	f.query(t, "/api/items/"+itemID, &item)
	assert.Equal(t, 7, item.Stock, "la venta se descuenta una sola vez")
}

func TestAPI_ValidacionAntesDeEscribir(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)

	resp, body := f.apply(t, itemID, "PURCHASE", 0, 0, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "quantity")
	var movs []dto.MovementResponse
	f.query(t, "/api/movements", &movs)
	assert.Empty(t, movs)
}

// Un alım que llevaría el stock por encima del máximo se rechaza sin tocar el producto.
func TestAPI_AlimQueDesbordaStock400(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)
	resp, body := f.apply(t, itemID, "PURCHASE", 1, 0, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.apply(t, itemID, "PURCHASE", math.MaxInt32, 1, "?confirm=true")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "quantity")

	resp, body = f.apply(t, itemID, "PURCHASE", math.MaxInt, 1, "?confirm=true")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "quantity")

	var item dto.ItemResponse
	f.query(t, "/api/items/"+itemID, &item)
	assert.Equal(t, 1, item.Stock)
	var movs []dto.MovementResponse
	f.query(t, "/api/movements", &movs)
	assert.Len(t, movs, 1)
}

func TestAPI_CantidadGrandeRequiereConfirmacion(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)

	resp, body := f.apply(t, itemID, "PURCHASE", 60, 0, "")
	require.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	var conf dto.ConfirmationResponse
	require.NoError(t, json.Unmarshal(body, &conf))
	assert.Equal(t, "CONFIRMATION_REQUIRED", conf.Code)
	assert.Equal(t, "60 adet alım işlemi yapılacak. Onaylıyor musunuz?", conf.Prompt)

	resp, body = f.apply(t, itemID, "PURCHASE", 60, 0, "?confirm=true")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodPost, "/api/items/"+itemID+"/movements", map[string]any{
		"type": "SALE", "quantity": 55, "current_stock": 60, "confirmed": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func TestAPI_GeriAl(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)
	resp, body := f.apply(t, itemID, "PURCHASE", 5, 0, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var applied dto.ApplyMovementResponse
	require.NoError(t, json.Unmarshal(body, &applied))
	undoPath := "/api/movements/" + applied.Movement.ID + "/undo"

	resp, body = f.do(t, http.MethodPost, undoPath, nil)
	require.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Contains(t, string(body), "Kinesyo bant")

	resp, body = f.do(t, http.MethodPost, undoPath+"?confirm=true", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var undone dto.UndoMovementResponse
	require.NoError(t, json.Unmarshal(body, &undone))
	assert.Equal(t, 0, undone.NewStock)
	assert.Equal(t, applied.Movement.ID, undone.ReversedMovementID)
	require.NotNil(t, undone.Movement.ReversalOf)
	assert.Equal(t, "SALE", undone.Movement.Type)

	resp, body = f.do(t, http.MethodPost, undoPath+"?confirm=true", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "ALREADY_REVERSED")
}

func TestAPI_ListaUsaCacheEInvalidaTrasMutacion(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)

	env := f.query(t, "/api/movements", nil)
	assert.False(t, env.Cached)
	env = f.query(t, "/api/movements", nil)
	assert.True(t, env.Cached, "la segunda lectura dentro del stale time sale de la caché")

	resp, _ := f.apply(t, itemID, "PURCHASE", 2, 0, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var movs []dto.MovementResponse
	env = f.query(t, "/api/movements", &movs)
	assert.False(t, env.Cached)
	require.Len(t, movs, 1)
	assert.Equal(t, "PURCHASE", movs[0].Type)
}

func TestAPI_RangoInvalido400(t *testing.T) {
	f := newAPI(t)

	resp, body := f.do(t, http.MethodGet, "/api/movements?range=year", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "range")
}

func TestAPI_ExportCSV(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)
	resp, _ := f.apply(t, itemID, "PURCHASE", 5, 0, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/api/movements/export.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Regexp(t, `attachment; filename="stok-gecmisi-\d{4}-\d{2}-\d{2}\.csv"`, resp.Header.Get("Content-Disposition"))

	text := string(body)
	require.True(t, strings.HasPrefix(text, "\ufeffTarih,Ürün,İşlem,Miktar\n"), text)
	assert.Contains(t, text, `"Kinesyo bant","Alım","5"`)
}

func TestAPI_ExportPDFSinRenderer400(t *testing.T) {
	f := newAPI(t)

	resp, _ := f.do(t, http.MethodGet, "/api/movements/export.pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_BorrarCategoriaPideConfirmacion(t *testing.T) {
	f := newAPI(t)
	f.seedItem(t)
	var cats []dto.CategoryResponse
	f.query(t, "/api/categories", &cats)
	require.Len(t, cats, 1)

	resp, body := f.do(t, http.MethodDelete, "/api/categories/"+cats[0].ID, nil)
	require.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Contains(t, string(body), `\"Bandajlar\" kategorisi ve tüm ürünleri silinsin mi?`)

	resp, _ = f.do(t, http.MethodDelete, "/api/categories/"+cats[0].ID+"?confirm=true", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var items []dto.ItemResponse
	f.query(t, "/api/items", &items)
	assert.Empty(t, items)
}

func TestAPI_Audit(t *testing.T) {
	f := newAPI(t)
	itemID := f.seedItem(t)
	resp, _ := f.apply(t, itemID, "PURCHASE", 8, 0, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/api/items/"+itemID+"/audit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audit dto.ItemAuditResponse
	require.NoError(t, json.Unmarshal(body, &audit))
	assert.True(t, audit.Consistent)
	assert.Equal(t, 8, audit.DerivedStock)
}

func TestAPI_ProductoAjenoNoExiste(t *testing.T) {
	f := newAPI(t)

	resp, body := f.do(t, http.MethodGet, "/api/items/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestAPI_LogoutRevocaToken(t *testing.T) {
	f := newAPI(t)

	resp, _ := f.do(t, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RegistroDuplicado409(t *testing.T) {
	f := newAPI(t)

	resp, body := f.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email": "  FIZYO@example.com ", "password": "secreto1", "confirm_password": "secreto1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "EMAIL_EXISTS")
}

func TestBackendUnavailable(t *testing.T) {
	d := apphttp.Degradation{Missing: []string{"DATABASE_URL", "JWT_SECRET"}}
	app := fiber.New()
	app.Get("/health", apphttp.Health("fizyostok", d))
	app.Use("/api", apphttp.BackendUnavailable(d))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/items", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "BACKEND_NOT_CONFIGURED")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"degraded"`)
}

func TestBackendUnavailable_BackendCaido(t *testing.T) {
	d := apphttp.Degradation{Reason: "conexión a PostgreSQL: connection refused"}
	app := fiber.New()
	app.Get("/health", apphttp.Health("fizyostok", d))
	app.Use("/api", apphttp.BackendUnavailable(d))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/movements", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "BACKEND_UNAVAILABLE")
	assert.Contains(t, string(body), "connection refused")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "degraded", health["status"])
	assert.Equal(t, d.Reason, health["reason"])
	assert.NotContains(t, health, "missing")
}

func TestHealth_OK(t *testing.T) {
	app := fiber.New()
	app.Get("/health", apphttp.Health("fizyostok", apphttp.Degradation{}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok","service":"fizyostok"}`, string(body))
}

func TestRateLimiter_Responde429(t *testing.T) {
	rl := apphttp.NewRateLimiter(60, 2, nil)
	defer rl.Stop()
	app := fiber.New()
	app.Get("/x", rl.Middleware(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil), -1)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
