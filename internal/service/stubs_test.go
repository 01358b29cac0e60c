package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"topneum/internal/dto"
	"topneum/internal/model"
	"topneum/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal { v := d(s); return &v }

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }

func copiaStock(s *int) *int {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ── Productos ─────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) add(codigo string, costo string, stock *int) *model.Producto {
	p := &model.Producto{ID: uuid.New(), Codigo: codigo, Marca: "Pirelli", Medida: "205/55R16", Costo: d(costo), Stock: stock, Activo: true}
	r.productos[p.ID] = p
	return p
}

func (r *stubProductoRepo) copia(p *model.Producto) *model.Producto {
	c := *p
	c.Stock = copiaStock(p.Stock)
	return &c
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	for _, e := range r.productos {
		if e.Codigo == p.Codigo {
			return repository.ErrDuplicado
		}
	}
	r.productos[p.ID] = r.copia(p)
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.copia(p), nil
}

func (r *stubProductoRepo) FindByCodigo(_ context.Context, codigo string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.Codigo == codigo && p.Activo {
			return r.copia(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	var out []model.Producto
	for _, p := range r.productos {
		out = append(out, *r.copia(p))
	}
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) Muestra(_ context.Context, n int) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.Activo && p.Costo.IsPositive() {
			out = append(out, *r.copia(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (r *stubProductoRepo) LockForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, id := range ids {
		if p, ok := r.productos[id]; ok && p.Activo {
			out = append(out, *r.copia(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *stubProductoRepo) FindForUpdateTx(_ *gorm.DB, id *uuid.UUID, codigo *string) (*model.Producto, error) {
	if id != nil {
		return r.FindByID(context.Background(), *id)
	}
	for _, p := range r.productos {
		if p.Codigo == *codigo {
			return r.copia(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubProductoRepo) DescontarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) error {
	p := r.productos[id]
	if p.Stock == nil {
		return nil
	}
	if *p.Stock < cantidad {
		return repository.ErrStockInsuficiente
	}
	*p.Stock -= cantidad
	return nil
}

func (r *stubProductoRepo) SumarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) error {
	if p := r.productos[id]; p.Stock != nil {
		*p.Stock += cantidad
	}
	return nil
}

func (r *stubProductoRepo) SetStockTx(_ *gorm.DB, id uuid.UUID, stock *int) error {
	r.productos[id].Stock = copiaStock(stock)
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── Movimientos ───────────────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	movimientos []model.MovimientoStock
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovimientoRepo) deTipo(tipo string) []model.MovimientoStock {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if m.Tipo == tipo {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// ── Pedidos ───────────────────────────────────────────────────────────────────

type stubPedidoRepo struct {
	pedidos   map[uuid.UUID]*model.Pedido
	productos *stubProductoRepo
	seq       int
}

func newStubPedidoRepo(productos *stubProductoRepo) *stubPedidoRepo {
	return &stubPedidoRepo{pedidos: make(map[uuid.UUID]*model.Pedido), productos: productos, seq: 1000}
}

func (r *stubPedidoRepo) CreateTx(_ *gorm.DB, p *model.Pedido) error {
	if p.ClaveIdempotencia != nil {
		for _, e := range r.pedidos {
			if e.ClaveIdempotencia != nil && *e.ClaveIdempotencia == *p.ClaveIdempotencia {
				return repository.ErrDuplicado
			}
		}
	}
	c := *p
	c.Items = append([]model.PedidoItem(nil), p.Items...)
	c.CreatedAt = time.Now()
	r.pedidos[p.ID] = &c
	return nil
}

func (r *stubPedidoRepo) NextNumeroTx(_ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubPedidoRepo) withProductos(p *model.Pedido) *model.Pedido {
	c := *p
	c.Items = make([]model.PedidoItem, len(p.Items))
	for i, it := range p.Items {
		it.Producto = r.productos.productos[it.ProductoID]
		c.Items[i] = it
	}
	return &c
}

func (r *stubPedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	p, ok := r.pedidos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withProductos(p), nil
}

func (r *stubPedidoRepo) FindByClave(_ context.Context, clave string) (*model.Pedido, error) {
	for _, p := range r.pedidos {
		if p.ClaveIdempotencia != nil && *p.ClaveIdempotencia == clave {
			return r.withProductos(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubPedidoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Pedido, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPedidoRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	r.pedidos[id].Estado = estado
	return nil
}

func (r *stubPedidoRepo) List(_ context.Context, f dto.PedidoFilter) ([]model.Pedido, int64, error) {
	var out []model.Pedido
	for _, p := range r.pedidos {
		if f.Estado != "" && p.Estado != f.Estado {
			continue
		}
		out = append(out, *r.withProductos(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero > out[j].Numero })
	return out, int64(len(out)), nil
}

func (r *stubPedidoRepo) DB() *gorm.DB { return nil }

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

// ── Tarifas ───────────────────────────────────────────────────────────────────

type stubTarifaRepo struct {
	tarifas map[uuid.UUID]*model.Tarifa
	locks   int
}

func newStubTarifaRepo() *stubTarifaRepo {
	return &stubTarifaRepo{tarifas: make(map[uuid.UUID]*model.Tarifa)}
}

func (r *stubTarifaRepo) Create(_ context.Context, t *model.Tarifa) error {
	c := *t
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	r.tarifas[t.ID] = &c
	return nil
}

func (r *stubTarifaRepo) CreateTx(_ *gorm.DB, t *model.Tarifa) error {
	return r.Create(context.Background(), t)
}

func (r *stubTarifaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tarifa, error) {
	t, ok := r.tarifas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *stubTarifaRepo) FindActiva(_ context.Context) (*model.Tarifa, error) {
	for _, t := range r.tarifas {
		if t.Activa {
			c := *t
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubTarifaRepo) List(_ context.Context) ([]model.Tarifa, error) {
	var out []model.Tarifa
	for _, t := range r.tarifas {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubTarifaRepo) Update(_ context.Context, id uuid.UUID, campos map[string]interface{}) (*model.Tarifa, error) {
	t, ok := r.tarifas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range campos {
		switch k {
		case "nombre":
			t.Nombre = v.(string)
		case "jitter_min":
			t.JitterMin = v.(decimal.Decimal)
		case "jitter_max":
			t.JitterMax = v.(decimal.Decimal)
		case "redondeo_venta":
			t.RedondeoVenta = v.(decimal.Decimal)
		case "margen_online":
			t.MargenOnline = v.(decimal.Decimal)
		}
	}
	t.UpdatedAt = time.Now()
	c := *t
	return &c, nil
}

func (r *stubTarifaRepo) LockPublicacionTx(_ *gorm.DB) error {
	r.locks++
	return nil
}

func (r *stubTarifaRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Tarifa, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubTarifaRepo) DesactivarVigentesTx(_ *gorm.DB, exceptoID uuid.UUID, hoy time.Time) error {
	for id, t := range r.tarifas {
		if t.Activa && id != exceptoID {
			t.Activa = false
			h := hoy
			t.VigenteHasta = &h
		}
	}
	return nil
}

func (r *stubTarifaRepo) ActivarTx(_ *gorm.DB, id uuid.UUID, hoy time.Time) error {
	t := r.tarifas[id]
	t.Activa = true
	h := hoy
	t.VigenteDesde = &h
	t.VigenteHasta = nil
	return nil
}

func (r *stubTarifaRepo) DB() *gorm.DB { return nil }

func (r *stubTarifaRepo) activas() int {
	n := 0
	for _, t := range r.tarifas {
		if t.Activa {
			n++
		}
	}
	return n
}

var _ repository.TarifaRepository = (*stubTarifaRepo)(nil)

// ── Colaboradores ─────────────────────────────────────────────────────────────

type evento struct {
	tipo    string
	payload interface{}
}

type stubPublicador struct {
	mu      sync.Mutex
	eventos []evento
	err     error
}

func (p *stubPublicador) EnqueueEvento(_ context.Context, tipo string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventos = append(p.eventos, evento{tipo, payload})
	return p.err
}

type stubCache struct {
	datos     map[string][]byte
	limpiezas int
}

func newStubCache() *stubCache { return &stubCache{datos: make(map[string][]byte)} }

func (c *stubCache) Obtener(_ context.Context, clave string) ([]byte, bool, error) {
	b, ok := c.datos[clave]
	return b, ok, nil
}

func (c *stubCache) Guardar(_ context.Context, clave string, valor []byte) error {
	c.datos[clave] = valor
	return nil
}

func (c *stubCache) Limpiar(_ context.Context) error {
	c.limpiezas++
	c.datos = make(map[string][]byte)
	return nil
}

// parametrosBase mirrors the reference ladder used across the tests.
func parametrosBase() dto.TarifaParametrosRequest {
	return dto.TarifaParametrosRequest{
		JitterMin:                 dp("1.2"),
		JitterMax:                 dp("1.2"),
		RedondeoLista:             dp("1000"),
		RedondeoVenta:             dp("100"),
		IVA:                       dp("0.21"),
		MargenOnline:              dp("0.10"),
		Recargo3:                  dp("0.15"),
		Recargo6:                  dp("0.25"),
		Recargo12:                 dp("0.50"),
		DescuentoContadoCABA:      dp("0.10"),
		DescuentoContadoInterior:  dp("0.05"),
		MargenMayoristaFacturado:  dp("0.30"),
		MargenMayoristaSinFactura: dp("0.20"),
	}
}
