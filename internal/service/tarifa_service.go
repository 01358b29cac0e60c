package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"topneum/internal/dto"
	"topneum/internal/metrics"
	"topneum/internal/model"
	"topneum/internal/pricing"
	"topneum/internal/repository"
	"topneum/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	muestraPorDefecto = 10
	muestraMaxima     = 50
)

type TarifaService interface {
	Crear(ctx context.Context, req dto.CrearTarifaRequest) (*dto.TarifaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarTarifaRequest) (*dto.TarifaResponse, error)
	Publicar(ctx context.Context, id uuid.UUID) (*dto.TarifaResponse, error)
	Preview(ctx context.Context, id uuid.UUID, muestra int, semilla *uint64) (*dto.PreviewResponse, error)
	PreviewParametros(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResponse, error)
	ObtenerActiva(ctx context.Context) (*dto.TarifaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.TarifaResponse, error)
	Listar(ctx context.Context) ([]dto.TarifaResponse, error)
}

// CacheCotizaciones drops cached quotes when the active tarifa changes.
type CacheCotizaciones interface {
	Limpiar(ctx context.Context) error
}

type tarifaService struct {
	repo         repository.TarifaRepository
	productoRepo repository.ProductoRepository
	eventos      Publicador
	cache        CacheCotizaciones
	now          func() time.Time
}

func NewTarifaService(
	repo repository.TarifaRepository,
	productoRepo repository.ProductoRepository,
	eventos Publicador,
	cache CacheCotizaciones,
) TarifaService {
	return &tarifaService{
		repo:         repo,
		productoRepo: productoRepo,
		eventos:      eventos,
		cache:        cache,
		now:          time.Now,
	}
}

func (s *tarifaService) hoy() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *tarifaService) Crear(ctx context.Context, req dto.CrearTarifaRequest) (*dto.TarifaResponse, error) {
	fields := req.Faltantes()
	if strings.TrimSpace(req.Nombre) == "" {
		fields["nombre"] = "requerido"
	}
	if len(fields) > 0 {
		return nil, &ValidacionError{Campos: fields}
	}
	params := req.Parametros()
	if fields := params.Validar(); len(fields) > 0 {
		return nil, &ValidacionError{Campos: fields}
	}

	t := &model.Tarifa{ID: uuid.New(), Nombre: req.Nombre}
	aplicarParametros(t, params)

	if !req.Activa {
		if err := s.repo.Create(ctx, t); err != nil {
			return nil, clasificar(err)
		}
		log.Info().Str("tarifa_id", t.ID.String()).Str("nombre", t.Nombre).Msg("tarifa_service: tarifa creada")
		return tarifaToResponse(t), nil
	}

	// Created active: insert and publish in the same transaction, under the
	// same lock as Publicar.
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.LockPublicacionTx(tx); err != nil {
			return err
		}
		if err := s.repo.CreateTx(tx, t); err != nil {
			return err
		}
		return s.publicarTx(tx, t)
	})
	if err != nil {
		return nil, s.errorPublicacion(err)
	}
	s.despuesDePublicar(ctx, t)
	return tarifaToResponse(t), nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────

func (s *tarifaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarTarifaRequest) (*dto.TarifaResponse, error) {
	actual, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, clasificar(err)
	}

	params := parametrosDe(actual)
	campos := make(map[string]interface{})
	merge := func(col string, dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
			campos[col] = *src
		}
	}
	merge("jitter_min", &params.JitterMin, req.JitterMin)
	merge("jitter_max", &params.JitterMax, req.JitterMax)
	merge("redondeo_lista", &params.RedondeoLista, req.RedondeoLista)
	merge("redondeo_venta", &params.RedondeoVenta, req.RedondeoVenta)
	merge("iva", &params.IVA, req.IVA)
	merge("margen_online", &params.MargenOnline, req.MargenOnline)
	merge("recargo_3", &params.Recargo3, req.Recargo3)
	merge("recargo_6", &params.Recargo6, req.Recargo6)
	merge("recargo_12", &params.Recargo12, req.Recargo12)
	merge("descuento_contado_caba", &params.DescuentoContadoCABA, req.DescuentoContadoCABA)
	merge("descuento_contado_interior", &params.DescuentoContadoInterior, req.DescuentoContadoInterior)
	merge("margen_mayorista_facturado", &params.MargenMayoristaFacturado, req.MargenMayoristaFacturado)
	merge("margen_mayorista_sin_factura", &params.MargenMayoristaSinFactura, req.MargenMayoristaSinFactura)
	if req.Nombre != nil {
		campos["nombre"] = *req.Nombre
	}

	// Validate the merged result, not just the fields sent.
	if fields := params.Validar(); len(fields) > 0 {
		return nil, &ValidacionError{Campos: fields}
	}
	if len(campos) == 0 {
		return tarifaToResponse(actual), nil
	}

	t, err := s.repo.Update(ctx, id, campos)
	if err != nil {
		return nil, clasificar(err)
	}
	return tarifaToResponse(t), nil
}

// ── Publicar ──────────────────────────────────────────────────────────────────
// Single transaction:
//   1. advisory xact lock (serializes concurrent publishes)
//   2. lock target FOR UPDATE (not found → ErrNotFound)
//   3. already active → return unchanged
//   4. deactivate the current active one, stamping vigente_hasta
//   5. activate target, stamping vigente_desde
// The partial unique index uq_tarifas_activa backs the invariant.

func (s *tarifaService) Publicar(ctx context.Context, id uuid.UUID) (*dto.TarifaResponse, error) {
	var (
		t        *model.Tarifa
		yaActiva bool
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.LockPublicacionTx(tx); err != nil {
			return err
		}
		var err error
		t, err = s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		if t.Activa {
			yaActiva = true
			return nil
		}
		return s.publicarTx(tx, t)
	})
	if err != nil {
		return nil, s.errorPublicacion(err)
	}
	if !yaActiva {
		s.despuesDePublicar(ctx, t)
	}
	return tarifaToResponse(t), nil
}

func (s *tarifaService) publicarTx(tx *gorm.DB, t *model.Tarifa) error {
	hoy := s.hoy()
	if err := s.repo.DesactivarVigentesTx(tx, t.ID, hoy); err != nil {
		return err
	}
	if err := s.repo.ActivarTx(tx, t.ID, hoy); err != nil {
		return err
	}
	t.Activa = true
	t.VigenteDesde = &hoy
	t.VigenteHasta = nil
	return nil
}

func (s *tarifaService) errorPublicacion(err error) error {
	if errors.Is(err, repository.ErrDuplicado) {
		return fmt.Errorf("%w: %v", ErrConflictingPublish, err)
	}
	return clasificar(err)
}

func (s *tarifaService) despuesDePublicar(ctx context.Context, t *model.Tarifa) {
	metrics.TarifasPublicadas.Inc()
	log.Info().Str("tarifa_id", t.ID.String()).Str("nombre", t.Nombre).Msg("tarifa_service: tarifa publicada")

	if s.cache != nil {
		if err := s.cache.Limpiar(ctx); err != nil {
			log.Warn().Err(err).Msg("tarifa_service: no se pudo limpiar la cache de cotizaciones")
		}
	}
	if s.eventos != nil {
		if err := s.eventos.EnqueueEvento(ctx, worker.EventoTarifaPublicada, tarifaToResponse(t)); err != nil {
			log.Error().Err(err).Str("tarifa_id", t.ID.String()).Msg("tarifa_service: no se pudo encolar evento")
		}
	}
}

// ── Preview ───────────────────────────────────────────────────────────────────
// Read-only: samples active products with positive cost and prices them.

func (s *tarifaService) Preview(ctx context.Context, id uuid.UUID, muestra int, semilla *uint64) (*dto.PreviewResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, clasificar(err)
	}
	resp, err := s.preview(ctx, parametrosDe(t), muestra, semilla)
	if err != nil {
		return nil, err
	}
	tid := t.ID.String()
	resp.TarifaID = &tid
	return resp, nil
}

func (s *tarifaService) PreviewParametros(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResponse, error) {
	if fields := req.Faltantes(); len(fields) > 0 {
		return nil, &ValidacionError{Campos: fields}
	}
	params := req.Parametros()
	if fields := params.Validar(); len(fields) > 0 {
		return nil, &ValidacionError{Campos: fields}
	}
	return s.preview(ctx, params, req.Muestra, req.Semilla)
}

func (s *tarifaService) preview(ctx context.Context, params pricing.Parametros, muestra int, semilla *uint64) (*dto.PreviewResponse, error) {
	if muestra == 0 {
		muestra = muestraPorDefecto
	}
	if muestra < 1 || muestra > muestraMaxima {
		return nil, invalido("muestra", fmt.Sprintf("debe estar entre 1 y %d", muestraMaxima))
	}

	productos, err := s.productoRepo.Muestra(ctx, muestra)
	if err != nil {
		return nil, clasificar(err)
	}

	var js pricing.JitterSource
	if semilla != nil {
		js = pricing.NewRandJitter(*semilla)
	} else {
		js = pricing.NewSystemJitter()
	}
	calc := pricing.NewCalculadora(js)

	items := make([]dto.PreviewItem, 0, len(productos))
	for _, p := range productos {
		escalera, err := calc.Cotizar(p.Costo, params)
		if err != nil {
			return nil, invalido("parametros", err.Error())
		}
		items = append(items, dto.PreviewItem{
			ProductoID: p.ID.String(),
			Codigo:     p.Codigo,
			Marca:      p.Marca,
			Medida:     p.Medida,
			Costo:      p.Costo,
			Precios:    escalera,
		})
	}
	return &dto.PreviewResponse{Muestra: len(items), Items: items}, nil
}

// ── Lectura ───────────────────────────────────────────────────────────────────

func (s *tarifaService) ObtenerActiva(ctx context.Context) (*dto.TarifaResponse, error) {
	t, err := s.repo.FindActiva(ctx)
	if err != nil {
		return nil, clasificar(err)
	}
	return tarifaToResponse(t), nil
}

func (s *tarifaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.TarifaResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, clasificar(err)
	}
	return tarifaToResponse(t), nil
}

func (s *tarifaService) Listar(ctx context.Context) ([]dto.TarifaResponse, error) {
	tarifas, err := s.repo.List(ctx)
	if err != nil {
		return nil, clasificar(err)
	}
	out := make([]dto.TarifaResponse, 0, len(tarifas))
	for i := range tarifas {
		out = append(out, *tarifaToResponse(&tarifas[i]))
	}
	return out, nil
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func parametrosDe(t *model.Tarifa) pricing.Parametros {
	return pricing.Parametros{
		JitterMin:                 t.JitterMin,
		JitterMax:                 t.JitterMax,
		RedondeoLista:             t.RedondeoLista,
		RedondeoVenta:             t.RedondeoVenta,
		IVA:                       t.IVA,
		MargenOnline:              t.MargenOnline,
		Recargo3:                  t.Recargo3,
		Recargo6:                  t.Recargo6,
		Recargo12:                 t.Recargo12,
		DescuentoContadoCABA:      t.DescuentoContadoCABA,
		DescuentoContadoInterior:  t.DescuentoContadoInterior,
		MargenMayoristaFacturado:  t.MargenMayoristaFacturado,
		MargenMayoristaSinFactura: t.MargenMayoristaSinFactura,
	}
}

func aplicarParametros(t *model.Tarifa, p pricing.Parametros) {
	t.JitterMin = p.JitterMin
	t.JitterMax = p.JitterMax
	t.RedondeoLista = p.RedondeoLista
	t.RedondeoVenta = p.RedondeoVenta
	t.IVA = p.IVA
	t.MargenOnline = p.MargenOnline
	t.Recargo3 = p.Recargo3
	t.Recargo6 = p.Recargo6
	t.Recargo12 = p.Recargo12
	t.DescuentoContadoCABA = p.DescuentoContadoCABA
	t.DescuentoContadoInterior = p.DescuentoContadoInterior
	t.MargenMayoristaFacturado = p.MargenMayoristaFacturado
	t.MargenMayoristaSinFactura = p.MargenMayoristaSinFactura
}

func fecha(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func tarifaToResponse(t *model.Tarifa) *dto.TarifaResponse {
	return &dto.TarifaResponse{
		ID:           t.ID.String(),
		Nombre:       t.Nombre,
		Activa:       t.Activa,
		VigenteDesde: fecha(t.VigenteDesde),
		VigenteHasta: fecha(t.VigenteHasta),
		Parametros:   parametrosDe(t),
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.Format(time.RFC3339),
	}
}
