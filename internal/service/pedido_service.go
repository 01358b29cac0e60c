package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"topneum/internal/dto"
	"topneum/internal/metrics"
	"topneum/internal/model"
	"topneum/internal/repository"
	"topneum/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PedidoService interface {
	Crear(ctx context.Context, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.PedidoResponse, error)
	Listar(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error)
	CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoPedidoRequest) (*dto.PedidoResponse, error)
}

type pedidoService struct {
	repo           repository.PedidoRepository
	productoRepo   repository.ProductoRepository
	movimientoRepo repository.MovimientoStockRepository
	eventos        Publicador
}

func NewPedidoService(
	repo repository.PedidoRepository,
	productoRepo repository.ProductoRepository,
	movimientoRepo repository.MovimientoStockRepository,
	eventos Publicador,
) PedidoService {
	return &pedidoService{
		repo:           repo,
		productoRepo:   productoRepo,
		movimientoRepo: movimientoRepo,
		eventos:        eventos,
	}
}

// linea is one product of the order with quantities summed across lines.
type linea struct {
	productoID uuid.UUID
	cantidad   int
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// One transaction, all or nothing:
//   1. lock every referenced producto FOR UPDATE, in id order
//   2. reject missing/inactive products and every line short of stock
//   3. nextval numero, insert pedido + items
//   4. guarded stock decrement + movimiento per product
// After commit: metrics and the pedido.creado event.

func (s *pedidoService) Crear(ctx context.Context, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	ids, err := validarPedido(req)
	if err != nil {
		metrics.PedidosRechazados.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	if req.ClaveIdempotencia != nil {
		existente, err := s.repo.FindByClave(ctx, *req.ClaveIdempotencia)
		switch {
		case err == nil:
			log.Info().Int("numero", existente.Numero).Msg("pedido_service: clave de idempotencia repetida, devolviendo pedido existente")
			return pedidoToResponse(existente), nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, clasificar(err)
		}
	}

	lineas := agrupar(req.Items, ids)

	var pedido model.Pedido
	codigos := make(map[uuid.UUID]string, len(lineas))
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		productoIDs := make([]uuid.UUID, len(lineas))
		for i, l := range lineas {
			productoIDs[i] = l.productoID
		}
		productos, err := s.productoRepo.LockForUpdateTx(tx, productoIDs)
		if err != nil {
			return err
		}
		porID := make(map[uuid.UUID]*model.Producto, len(productos))
		for i := range productos {
			porID[productos[i].ID] = &productos[i]
			codigos[productos[i].ID] = productos[i].Codigo
		}

		var noEncontrados []string
		var faltantes []Faltante
		for _, l := range lineas {
			p, ok := porID[l.productoID]
			if !ok {
				noEncontrados = append(noEncontrados, l.productoID.String())
				continue
			}
			if !p.TieneStock(l.cantidad) {
				faltantes = append(faltantes, Faltante{
					ProductoID: p.ID.String(),
					Codigo:     p.Codigo,
					Solicitado: l.cantidad,
					Disponible: p.Stock,
				})
			}
		}
		if len(noEncontrados) > 0 {
			return &ProductoNoEncontradoError{IDs: noEncontrados}
		}
		if len(faltantes) > 0 {
			return &StockInsuficienteError{Faltantes: faltantes}
		}

		numero, err := s.repo.NextNumeroTx(tx)
		if err != nil {
			return err
		}

		pedido = model.Pedido{
			ID:                uuid.New(),
			Numero:            numero,
			ClienteNombre:     strings.TrimSpace(req.ClienteNombre),
			ClienteTelefono:   strings.TrimSpace(req.ClienteTelefono),
			Direccion:         strings.TrimSpace(req.Direccion),
			ModoEntrega:       req.ModoEntrega,
			Estado:            model.EstadoPendientePreparacion,
			Notas:             req.Notas,
			ClaveIdempotencia: req.ClaveIdempotencia,
		}
		total := decimal.Zero
		for i, item := range req.Items {
			subtotal := item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad)))
			total = total.Add(subtotal)
			pedido.Items = append(pedido.Items, model.PedidoItem{
				ID:             uuid.New(),
				PedidoID:       pedido.ID,
				ProductoID:     ids[i],
				Cantidad:       item.Cantidad,
				PrecioUnitario: item.PrecioUnitario,
				Subtotal:       subtotal,
			})
		}
		pedido.Total = total

		if err := s.repo.CreateTx(tx, &pedido); err != nil {
			return err
		}

		for _, l := range lineas {
			p := porID[l.productoID]
			antes := p.Stock
			var despues *int
			if antes != nil {
				if err := s.productoRepo.DescontarStockTx(tx, p.ID, l.cantidad); err != nil {
					if errors.Is(err, repository.ErrStockInsuficiente) {
						return &StockInsuficienteError{Faltantes: []Faltante{{
							ProductoID: p.ID.String(), Codigo: p.Codigo, Solicitado: l.cantidad, Disponible: antes,
						}}}
					}
					return err
				}
				n := *antes - l.cantidad
				despues = &n
			}
			ref := pedido.ID
			mov := &model.MovimientoStock{
				ProductoID:    p.ID,
				Tipo:          model.MovimientoPedido,
				Cantidad:      -l.cantidad,
				StockAnterior: antes,
				StockNuevo:    despues,
				Motivo:        fmt.Sprintf("Pedido #%d", numero),
				ReferenciaID:  &ref,
			}
			if err := s.movimientoRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		// A concurrent retry with the same key won the insert: return its pedido.
		if req.ClaveIdempotencia != nil && errors.Is(txErr, repository.ErrDuplicado) {
			if existente, err := s.repo.FindByClave(ctx, *req.ClaveIdempotencia); err == nil {
				return pedidoToResponse(existente), nil
			}
		}
		err := clasificar(txErr)
		metrics.PedidosRechazados.WithLabelValues(motivoRechazo(err)).Inc()
		log.Warn().Err(err).Msg("pedido_service: pedido rechazado")
		return nil, err
	}

	metrics.PedidosCreados.Inc()
	log.Info().Int("numero", pedido.Numero).Str("pedido_id", pedido.ID.String()).
		Str("total", pedido.Total.StringFixed(2)).Msg("pedido_service: pedido creado")

	resp := pedidoToResponse(&pedido)
	for i := range resp.Items {
		resp.Items[i].Codigo = codigos[pedido.Items[i].ProductoID]
	}

	// Fire & forget: the pedido is committed whatever happens here.
	if s.eventos != nil {
		if err := s.eventos.EnqueueEvento(ctx, worker.EventoPedidoCreado, resp); err != nil {
			log.Error().Err(err).Int("numero", pedido.Numero).Msg("pedido_service: no se pudo encolar evento")
		}
	}
	return resp, nil
}

// validarPedido returns the parsed producto ids, one per item.
func validarPedido(req dto.CrearPedidoRequest) ([]uuid.UUID, error) {
	fields := make(map[string]string)

	if strings.TrimSpace(req.ClienteNombre) == "" {
		fields["cliente_nombre"] = "requerido"
	}
	if strings.TrimSpace(req.ClienteTelefono) == "" {
		fields["cliente_telefono"] = "requerido"
	}
	switch req.ModoEntrega {
	case model.ModoRetiro:
	case model.ModoEnvio:
		if strings.TrimSpace(req.Direccion) == "" {
			fields["direccion"] = "requerida para envio"
		}
	default:
		fields["modo_entrega"] = "debe ser retiro o envio"
	}
	if len(req.Items) == 0 {
		fields["items"] = "el pedido debe tener al menos un item"
	}

	ids := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		id, err := uuid.Parse(item.ProductoID)
		if err != nil {
			fields[fmt.Sprintf("items[%d].producto_id", i)] = "uuid invalido"
		}
		ids[i] = id
		if item.Cantidad < 1 {
			fields[fmt.Sprintf("items[%d].cantidad", i)] = "debe ser al menos 1"
		}
		if item.Cantidad > dto.MaxUnidades {
			fields[fmt.Sprintf("items[%d].cantidad", i)] = fmt.Sprintf("no puede superar %d", dto.MaxUnidades)
		}
		switch {
		case item.PrecioUnitario.IsNegative():
			fields[fmt.Sprintf("items[%d].precio_unitario", i)] = "no puede ser negativo"
		case !item.PrecioUnitario.Equal(item.PrecioUnitario.Round(2)):
			fields[fmt.Sprintf("items[%d].precio_unitario", i)] = "admite como maximo 2 decimales"
		case item.PrecioUnitario.GreaterThanOrEqual(importeMaximo):
			fields[fmt.Sprintf("items[%d].precio_unitario", i)] = "excede el importe maximo"
		}
	}
	if len(fields) == 0 {
		if campo, msg := excedeLimites(req.Items, ids); campo != "" {
			fields[campo] = msg
		}
	}

	if len(fields) > 0 {
		return nil, &ValidacionError{Campos: fields}
	}
	return ids, nil
}

// importeMaximo is the first amount DECIMAL(14,2) cannot hold.
var importeMaximo = decimal.New(1, 12)

// excedeLimites checks what the columns can store once lines are combined:
// the units per product and the order total.
func excedeLimites(items []dto.ItemPedidoRequest, ids []uuid.UUID) (string, string) {
	suma := make(map[uuid.UUID]int64, len(items))
	total := decimal.Zero
	for i, item := range items {
		suma[ids[i]] += int64(item.Cantidad)
		if suma[ids[i]] > dto.MaxUnidades {
			return "items", fmt.Sprintf("producto %s: la cantidad total no puede superar %d", ids[i], dto.MaxUnidades)
		}
		total = total.Add(item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad))))
	}
	if total.GreaterThanOrEqual(importeMaximo) {
		return "items", "el total del pedido excede el importe maximo"
	}
	return "", ""
}

// agrupar sums quantities per product and sorts by id so row locks are always
// taken in the same order.
func agrupar(items []dto.ItemPedidoRequest, ids []uuid.UUID) []linea {
	suma := make(map[uuid.UUID]int, len(items))
	for i, item := range items {
		suma[ids[i]] += item.Cantidad
	}
	out := make([]linea, 0, len(suma))
	for id, c := range suma {
		out = append(out, linea{productoID: id, cantidad: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productoID.String() < out[j].productoID.String() })
	return out
}

func motivoRechazo(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "storage_failure"
	}
}

// ── CambiarEstado ─────────────────────────────────────────────────────────────

var transiciones = map[string][]string{
	model.EstadoPendientePreparacion: {model.EstadoPreparado, model.EstadoCancelado},
	model.EstadoPreparado:            {model.EstadoDespachado, model.EstadoRetirado, model.EstadoCancelado},
	model.EstadoDespachado:           {model.EstadoEntregado},
	model.EstadoRetirado:             {model.EstadoEntregado},
}

func transicionValida(p *model.Pedido, nuevo string) error {
	permitido := false
	for _, e := range transiciones[p.Estado] {
		if e == nuevo {
			permitido = true
			break
		}
	}
	if !permitido {
		return invalido("estado", fmt.Sprintf("no se puede pasar de %s a %s", p.Estado, nuevo))
	}
	if nuevo == model.EstadoDespachado && p.ModoEntrega != model.ModoEnvio {
		return invalido("estado", "solo los pedidos con envio se despachan")
	}
	if nuevo == model.EstadoRetirado && p.ModoEntrega != model.ModoRetiro {
		return invalido("estado", "solo los pedidos para retiro se retiran")
	}
	return nil
}

// CambiarEstado moves the order along its lifecycle. Cancelling returns the
// reserved units to stock in the same transaction.
func (s *pedidoService) CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoPedidoRequest) (*dto.PedidoResponse, error) {
	var (
		anterior  string
		sinCambio bool
	)
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		anterior = p.Estado
		if p.Estado == req.Estado {
			sinCambio = true
			return nil
		}
		if err := transicionValida(p, req.Estado); err != nil {
			return err
		}

		if req.Estado == model.EstadoCancelado {
			if err := s.restaurarStockTx(tx, p, req.Motivo); err != nil {
				return err
			}
		}
		return s.repo.UpdateEstadoTx(tx, id, req.Estado)
	})
	if txErr != nil {
		return nil, clasificar(txErr)
	}

	resp, err := s.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sinCambio {
		return resp, nil
	}

	log.Info().Int("numero", resp.Numero).Str("de", anterior).Str("a", resp.Estado).Msg("pedido_service: estado cambiado")
	if s.eventos != nil {
		payload := map[string]interface{}{
			"pedido_id":       resp.ID,
			"numero":          resp.Numero,
			"estado_anterior": anterior,
			"estado":          resp.Estado,
			"motivo":          req.Motivo,
		}
		if err := s.eventos.EnqueueEvento(ctx, worker.EventoPedidoEstado, payload); err != nil {
			log.Error().Err(err).Int("numero", resp.Numero).Msg("pedido_service: no se pudo encolar evento")
		}
	}
	return resp, nil
}

func (s *pedidoService) restaurarStockTx(tx *gorm.DB, p *model.Pedido, motivo string) error {
	suma := make(map[uuid.UUID]int)
	for _, it := range p.Items {
		suma[it.ProductoID] += it.Cantidad
	}
	ids := make([]uuid.UUID, 0, len(suma))
	for pid := range suma {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, pid := range ids {
		cantidad := suma[pid]
		prod, err := s.productoRepo.FindForUpdateTx(tx, &pid, nil)
		if err != nil {
			return err
		}
		antes := prod.Stock
		var despues *int
		if antes != nil {
			if err := s.productoRepo.SumarStockTx(tx, pid, cantidad); err != nil {
				return err
			}
			n := *antes + cantidad
			despues = &n
		}
		texto := fmt.Sprintf("Cancelacion pedido #%d", p.Numero)
		if motivo != "" {
			texto += " - " + motivo
		}
		ref := p.ID
		mov := &model.MovimientoStock{
			ProductoID:    pid,
			Tipo:          model.MovimientoRestoreCancelacion,
			Cantidad:      cantidad,
			StockAnterior: antes,
			StockNuevo:    despues,
			Motivo:        texto,
			ReferenciaID:  &ref,
		}
		if err := s.movimientoRepo.CreateTx(tx, mov); err != nil {
			return err
		}
	}
	return nil
}

// ── Lectura ───────────────────────────────────────────────────────────────────

func (s *pedidoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.PedidoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, clasificar(err)
	}
	return pedidoToResponse(p), nil
}

// Listar returns a paginated list of orders, newest first.
func (s *pedidoService) Listar(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Fecha != "" {
		if _, err := time.Parse("2006-01-02", filter.Fecha); err != nil {
			return nil, invalido("fecha", "formato esperado YYYY-MM-DD")
		}
	}
	pedidos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, clasificar(err)
	}
	data := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		data = append(data, *pedidoToResponse(&pedidos[i]))
	}
	return &dto.PedidoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	items := make([]dto.ItemPedidoResponse, 0, len(p.Items))
	for _, it := range p.Items {
		r := dto.ItemPedidoResponse{
			ProductoID:     it.ProductoID.String(),
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
		if it.Producto != nil {
			r.Codigo = it.Producto.Codigo
		}
		items = append(items, r)
	}
	return &dto.PedidoResponse{
		ID:              p.ID.String(),
		Numero:          p.Numero,
		ClienteNombre:   p.ClienteNombre,
		ClienteTelefono: p.ClienteTelefono,
		Direccion:       p.Direccion,
		ModoEntrega:     p.ModoEntrega,
		Estado:          p.Estado,
		Total:           p.Total,
		Notas:           p.Notas,
		Items:           items,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}
