package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"topneum/internal/dto"
	"topneum/internal/model"
	"topneum/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ProductoService defines the catalog contract. Stock is not edited here:
// it only changes through orders and the sync endpoint.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
}

func NewProductoService(repo repository.ProductoRepository) ProductoService {
	return &productoService{repo: repo}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Codigo) == "" {
		fields["codigo"] = "requerido"
	}
	if strings.TrimSpace(req.Marca) == "" {
		fields["marca"] = "requerida"
	}
	if req.Costo.IsNegative() {
		fields["costo"] = "no puede ser negativo"
	}
	switch {
	case req.Stock != nil && *req.Stock < 0:
		fields["stock"] = "no puede ser negativo"
	case req.Stock != nil && *req.Stock > dto.MaxUnidades:
		fields["stock"] = fmt.Sprintf("no puede superar %d", dto.MaxUnidades)
	}
	if len(fields) > 0 {
		return nil, &ValidacionError{Campos: fields}
	}

	p := &model.Producto{
		ID:          uuid.New(),
		Codigo:      strings.TrimSpace(req.Codigo),
		Marca:       strings.TrimSpace(req.Marca),
		Modelo:      req.Modelo,
		Medida:      req.Medida,
		Descripcion: req.Descripcion,
		Costo:       req.Costo,
		Stock:       req.Stock,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicado) {
			return nil, invalido("codigo", fmt.Sprintf("ya existe un producto con codigo %s", p.Codigo))
		}
		return nil, clasificar(err)
	}
	log.Info().Str("producto_id", p.ID.String()).Str("codigo", p.Codigo).Msg("producto_service: producto creado")
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, clasificar(err)
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, clasificar(err)
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i]))
	}
	pages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		pages++
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: pages,
	}, nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:          p.ID.String(),
		Codigo:      p.Codigo,
		Marca:       p.Marca,
		Modelo:      p.Modelo,
		Medida:      p.Medida,
		Descripcion: p.Descripcion,
		Costo:       p.Costo,
		Stock:       p.Stock,
		Activo:      p.Activo,
	}
}
