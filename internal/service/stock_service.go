package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"topneum/internal/dto"
	"topneum/internal/metrics"
	"topneum/internal/model"
	"topneum/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockService receives absolute stock values from the external inventory
// source. A sync overwrites the column: last writer wins against concurrent
// order reservations, and the movement keeps the overwritten value.
type StockService interface {
	Sincronizar(ctx context.Context, req dto.SyncStockRequest) (*dto.ProductoResponse, error)
	SincronizarLote(ctx context.Context, req dto.SyncStockLoteRequest) (*dto.SyncStockLoteResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
}

type stockService struct {
	productoRepo   repository.ProductoRepository
	movimientoRepo repository.MovimientoStockRepository
}

func NewStockService(productoRepo repository.ProductoRepository, movimientoRepo repository.MovimientoStockRepository) StockService {
	return &stockService{productoRepo: productoRepo, movimientoRepo: movimientoRepo}
}

type objetivoSync struct {
	id     *uuid.UUID
	codigo *string
}

func (o objetivoSync) String() string {
	if o.id != nil {
		return o.id.String()
	}
	return *o.codigo
}

func validarSync(req dto.SyncStockRequest) (objetivoSync, error) {
	fields := make(map[string]string)
	var obj objetivoSync

	switch {
	case req.ProductoID != nil && req.Codigo != nil:
		fields["producto_id"] = "indicar producto_id o codigo, no ambos"
	case req.ProductoID != nil:
		id, err := uuid.Parse(*req.ProductoID)
		if err != nil {
			fields["producto_id"] = "uuid invalido"
		}
		obj.id = &id
	case req.Codigo != nil && *req.Codigo != "":
		obj.codigo = req.Codigo
	default:
		fields["producto_id"] = "indicar producto_id o codigo"
	}
	// A missing key must never read as unlimited.
	switch v := req.Stock.Valor; {
	case !req.Stock.Definido:
		fields["stock"] = "requerido (entero >= 0, o null para ilimitado)"
	case v != nil && *v < 0:
		fields["stock"] = "no puede ser negativo"
	case v != nil && *v > dto.MaxUnidades:
		fields["stock"] = fmt.Sprintf("no puede superar %d", dto.MaxUnidades)
	}

	if len(fields) > 0 {
		return obj, &ValidacionError{Campos: fields}
	}
	return obj, nil
}

// Sincronizar overwrites the stock of one product. Repeating the same call is
// a no-op: a movement is written only when the value actually changes.
func (s *stockService) Sincronizar(ctx context.Context, req dto.SyncStockRequest) (*dto.ProductoResponse, error) {
	obj, err := validarSync(req)
	if err != nil {
		metrics.StockSincronizado.WithLabelValues("invalido").Inc()
		return nil, err
	}

	nuevo := req.Stock.Valor
	var (
		producto *model.Producto
		cambio   bool
	)
	txErr := runTx(ctx, s.productoRepo.DB(), func(tx *gorm.DB) error {
		p, err := s.productoRepo.FindForUpdateTx(tx, obj.id, obj.codigo)
		if err != nil {
			return err
		}
		producto = p
		if mismoStock(p.Stock, nuevo) {
			return nil
		}
		cambio = true

		if err := s.productoRepo.SetStockTx(tx, p.ID, nuevo); err != nil {
			return err
		}
		mov := &model.MovimientoStock{
			ProductoID:    p.ID,
			Tipo:          model.MovimientoSincronizacion,
			Cantidad:      delta(p.Stock, nuevo),
			StockAnterior: p.Stock,
			StockNuevo:    nuevo,
			Motivo:        "Sincronizacion de inventario",
		}
		if err := s.movimientoRepo.CreateTx(tx, mov); err != nil {
			return err
		}
		p.Stock = nuevo
		return nil
	})
	if txErr != nil {
		err := clasificar(txErr)
		if errors.Is(err, ErrNotFound) {
			metrics.StockSincronizado.WithLabelValues("no_encontrado").Inc()
			return nil, fmt.Errorf("%w: producto %s", ErrNotFound, obj)
		}
		metrics.StockSincronizado.WithLabelValues("error").Inc()
		return nil, err
	}

	if cambio {
		metrics.StockSincronizado.WithLabelValues("cambiado").Inc()
		log.Info().Str("producto_id", producto.ID.String()).Str("codigo", producto.Codigo).
			Interface("stock", nuevo).Msg("stock_service: stock sincronizado")
	} else {
		metrics.StockSincronizado.WithLabelValues("sin_cambios").Inc()
	}
	return productoToResponse(producto), nil
}

// SincronizarLote applies each row in its own small transaction. A failing
// row never affects the others.
func (s *stockService) SincronizarLote(ctx context.Context, req dto.SyncStockLoteRequest) (*dto.SyncStockLoteResponse, error) {
	resp := &dto.SyncStockLoteResponse{Resultados: make([]dto.SyncStockResultado, 0, len(req.Items))}

	for i, item := range req.Items {
		r := dto.SyncStockResultado{Indice: i, ProductoID: item.ProductoID, Codigo: item.Codigo}
		p, err := s.Sincronizar(ctx, item)
		switch {
		case err == nil:
			id := p.ID
			r.ProductoID = &id
			r.Resultado = dto.SyncOK
			resp.Actualizados++
		case errors.Is(err, ErrInvalidInput):
			r.Resultado = dto.SyncInvalido
			r.Detalle = err.Error()
			resp.Fallidos++
		case errors.Is(err, ErrNotFound):
			r.Resultado = dto.SyncNoEncontrado
			resp.Fallidos++
		default:
			// Deadline or storage failure: the rest of the batch would fail too.
			if ctx.Err() != nil {
				return nil, clasificar(ctx.Err())
			}
			r.Resultado = dto.SyncErrorInterno
			r.Detalle = "error de almacenamiento"
			resp.Fallidos++
		}
		resp.Resultados = append(resp.Resultados, r)
	}

	log.Info().Int("actualizados", resp.Actualizados).Int("fallidos", resp.Fallidos).
		Msg("stock_service: lote sincronizado")
	return resp, nil
}

func (s *stockService) ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	f := repository.MovimientoStockFilter{Tipo: filter.Tipo, Page: filter.Page, Limit: filter.Limit}
	if filter.ProductoID != "" {
		id, err := uuid.Parse(filter.ProductoID)
		if err != nil {
			return nil, invalido("producto_id", "uuid invalido")
		}
		f.ProductoID = &id
	}

	movs, total, err := s.movimientoRepo.List(ctx, f)
	if err != nil {
		return nil, clasificar(err)
	}
	data := make([]dto.MovimientoStockResponse, 0, len(movs))
	for _, m := range movs {
		r := dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			ProductoID:    m.ProductoID.String(),
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			r.ReferenciaID = &ref
		}
		data = append(data, r)
	}
	return &dto.MovimientoStockListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func mismoStock(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// delta is zero when either side is unlimited.
func delta(antes, despues *int) int {
	if antes == nil || despues == nil {
		return 0
	}
	return *despues - *antes
}
