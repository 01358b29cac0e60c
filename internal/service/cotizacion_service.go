package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"topneum/internal/dto"
	"topneum/internal/metrics"
	"topneum/internal/model"
	"topneum/internal/pricing"
	"topneum/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CotizacionService quotes a product under the active tarifa.
type CotizacionService interface {
	CotizarPorID(ctx context.Context, productoID uuid.UUID) (*dto.CotizacionResponse, error)
	CotizarPorCodigo(ctx context.Context, codigo string) (*dto.CotizacionResponse, error)
}

// CotizacionStore is the quote cache; nil disables caching.
type CotizacionStore interface {
	Obtener(ctx context.Context, clave string) ([]byte, bool, error)
	Guardar(ctx context.Context, clave string, valor []byte) error
}

type cotizacionService struct {
	tarifaRepo   repository.TarifaRepository
	productoRepo repository.ProductoRepository
	cache        CotizacionStore
}

func NewCotizacionService(
	tarifaRepo repository.TarifaRepository,
	productoRepo repository.ProductoRepository,
	cache CotizacionStore,
) CotizacionService {
	return &cotizacionService{tarifaRepo: tarifaRepo, productoRepo: productoRepo, cache: cache}
}

func (s *cotizacionService) CotizarPorID(ctx context.Context, productoID uuid.UUID) (*dto.CotizacionResponse, error) {
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		return nil, clasificar(err)
	}
	if !p.Activo {
		return nil, fmt.Errorf("%w: producto %s inactivo", ErrNotFound, p.Codigo)
	}
	return s.cotizar(ctx, p)
}

func (s *cotizacionService) CotizarPorCodigo(ctx context.Context, codigo string) (*dto.CotizacionResponse, error) {
	p, err := s.productoRepo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, clasificar(err)
	}
	return s.cotizar(ctx, p)
}

func (s *cotizacionService) cotizar(ctx context.Context, p *model.Producto) (*dto.CotizacionResponse, error) {
	t, err := s.tarifaRepo.FindActiva(ctx)
	if err != nil {
		return nil, fmt.Errorf("sin tarifa activa: %w", clasificar(err))
	}

	clave := fmt.Sprintf("%s:%d:%s", t.ID, t.UpdatedAt.UnixNano(), p.ID)
	if s.cache != nil {
		if b, ok, err := s.cache.Obtener(ctx, clave); err != nil {
			log.Warn().Err(err).Msg("cotizacion_service: cache no disponible")
		} else if ok {
			var resp dto.CotizacionResponse
			if json.Unmarshal(b, &resp) == nil {
				metrics.CotizacionCache.WithLabelValues("hit").Inc()
				resp.Stock = p.Stock
				return &resp, nil
			}
		}
		metrics.CotizacionCache.WithLabelValues("miss").Inc()
	}

	calc := pricing.NewCalculadora(pricing.NewRandJitter(semillaCotizacion(t.ID, p.ID)))
	escalera, err := calc.Cotizar(p.Costo, parametrosDe(t))
	if err != nil {
		return nil, clasificar(fmt.Errorf("tarifa %s: %w", t.ID, err))
	}

	resp := &dto.CotizacionResponse{
		ProductoID: p.ID.String(),
		Codigo:     p.Codigo,
		Marca:      p.Marca,
		Medida:     p.Medida,
		Stock:      p.Stock,
		TarifaID:   t.ID.String(),
		Tarifa:     t.Nombre,
		Precios:    escalera,
	}

	if s.cache != nil {
		if b, err := json.Marshal(resp); err == nil {
			if err := s.cache.Guardar(ctx, clave, b); err != nil {
				log.Warn().Err(err).Msg("cotizacion_service: no se pudo guardar en cache")
			}
		}
	}
	return resp, nil
}

// semillaCotizacion pins the jitter of a product under a given tarifa, so the
// same customer sees the same price with or without the cache.
func semillaCotizacion(tarifaID, productoID uuid.UUID) uint64 {
	h := fnv.New64a()
	h.Write(tarifaID[:])
	h.Write(productoID[:])
	return h.Sum64()
}
