//go:build integration

package router

// End-to-end tests over the full router with real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"topneum/internal/config"
	"topneum/internal/infra"
	"topneum/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const jwtSecret = "test-secret-key"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func tokenPara(t *testing.T, rol string) string {
	t.Helper()
	claims := middleware.JWTClaims{
		UserID:           "e2e-" + rol,
		Rol:              rol,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return s
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	admin  string
	vend   string
	integ  string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("topneum_test"),
		tcPostgres.WithUsername("topneum"),
		tcPostgres.WithPassword("topneum"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgC) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rdC) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          jwtSecret,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		RequestTimeout:     10 * time.Second,
		CotizacionCacheTTL: time.Minute,
		PrecioRateLimit:    1000,
	}

	require.NoError(t, infra.RunMigrations(cfg.DatabaseURL))
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	srv := httptest.NewServer(New(cfg, db, rdb))
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		admin:  tokenPara(t, middleware.RolAdministrador),
		vend:   tokenPara(t, middleware.RolVendedor),
		integ:  tokenPara(t, middleware.RolIntegracion),
	}
}

func parametrosTarifa(nombre string, activa bool) map[string]any {
	return map[string]any{
		"nombre":                       nombre,
		"activa":                       activa,
		"jitter_min":                   "1.2",
		"jitter_max":                   "1.2",
		"redondeo_lista":               "1000",
		"redondeo_venta":               "100",
		"iva":                          "0.21",
		"margen_online":                "0.10",
		"recargo_3":                    "0.15",
		"recargo_6":                    "0.25",
		"recargo_12":                   "0.50",
		"descuento_contado_caba":       "0.10",
		"descuento_contado_interior":   "0.05",
		"margen_mayorista_facturado":   "0.30",
		"margen_mayorista_sin_factura": "0.20",
	}
}

type idResp struct {
	ID string `json:"id"`
}

func crearProducto(t *testing.T, env *testEnv, codigo string, stock int) string {
	t.Helper()
	resp := do(t, env.server, http.MethodPost, "/v1/productos", jsonBody(t, map[string]any{
		"codigo": codigo, "marca": "Pirelli", "medida": "205/55R16", "costo": "10000", "stock": stock,
	}), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p idResp
	decodeJSON(t, resp, &p)
	return p.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_TarifaCotizacionYPedido(t *testing.T) {
	env := setupTestEnv(t)
	prodID := crearProducto(t, env, "PIR-P7-2055516", 3)

	// Without an active tarifa there is nothing to quote
	resp := do(t, env.server, http.MethodGet, "/v1/precio/PIR-P7-2055516", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Create and publish in one step
	resp = do(t, env.server, http.MethodPost, "/v1/tarifas", jsonBody(t, parametrosTarifa("Marzo", true)), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Public quote: cost 10000 x 1.2 → lista 12000, online 13200
	resp = do(t, env.server, http.MethodGet, "/v1/precio/PIR-P7-2055516", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cot struct {
		Precios struct {
			Lista  string `json:"lista"`
			Online string `json:"online"`
		} `json:"precios"`
	}
	decodeJSON(t, resp, &cot)
	assert.Equal(t, "12000", cot.Precios.Lista)
	assert.Equal(t, "13200", cot.Precios.Online)

	// Sellers cannot publish
	resp = do(t, env.server, http.MethodPost, "/v1/tarifas", jsonBody(t, parametrosTarifa("Abril", false)), env.vend)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Order for 2 of 3
	pedido := map[string]any{
		"cliente_nombre":   "Ana",
		"cliente_telefono": "1155550000",
		"modo_entrega":     "retiro",
		"items":            []map[string]any{{"producto_id": prodID, "cantidad": 2, "precio_unitario": "13200"}},
	}
	resp = do(t, env.server, http.MethodPost, "/v1/pedidos", jsonBody(t, pedido), env.vend)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var creado struct {
		Numero int    `json:"numero"`
		Total  string `json:"total"`
	}
	decodeJSON(t, resp, &creado)
	assert.Equal(t, "26400", creado.Total)

	// A second order for 2 exceeds the remaining unit
	resp = do(t, env.server, http.MethodPost, "/v1/pedidos", jsonBody(t, pedido), env.vend)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var apiErr struct {
		Code string `json:"code"`
	}
	decodeJSON(t, resp, &apiErr)
	assert.Equal(t, "insufficient_stock", apiErr.Code)
}

func TestE2E_SincronizacionDeStock(t *testing.T) {
	env := setupTestEnv(t)
	prodID := crearProducto(t, env, "FAT-AX-1757013", 1)

	body := map[string]any{"codigo": "FAT-AX-1757013", "stock": 40}
	for i := 0; i < 2; i++ {
		resp := do(t, env.server, http.MethodPut, "/v1/stock/sync", jsonBody(t, body), env.integ)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var p struct {
			Stock *int `json:"stock"`
		}
		decodeJSON(t, resp, &p)
		require.NotNil(t, p.Stock)
		assert.Equal(t, 40, *p.Stock)
	}

	resp := do(t, env.server, http.MethodGet, "/v1/stock/movimientos?tipo=sincronizacion", nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movs struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, resp, &movs)
	assert.Equal(t, int64(1), movs.Total, "repeated sync writes a single movement")

	// A row without the stock key is rejected and never turns stock checks off.
	resp = do(t, env.server, http.MethodPut, "/v1/stock/sync", jsonBody(t, map[string]any{"codigo": "FAT-AX-1757013"}), env.integ)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, env.server, http.MethodGet, "/v1/productos/"+prodID, nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prod struct {
		Stock *int `json:"stock"`
	}
	decodeJSON(t, resp, &prod)
	require.NotNil(t, prod.Stock)
	assert.Equal(t, 40, *prod.Stock)

	resp = do(t, env.server, http.MethodPut, "/v1/stock/sync", jsonBody(t, map[string]any{"codigo": "NOPE", "stock": 1}), env.integ)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodPut, "/v1/stock/sync", jsonBody(t, body), env.vend)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_Health(t *testing.T) {
	env := setupTestEnv(t)
	resp := do(t, env.server, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var h struct {
		OK bool `json:"ok"`
	}
	decodeJSON(t, resp, &h)
	assert.True(t, h.OK)
}
