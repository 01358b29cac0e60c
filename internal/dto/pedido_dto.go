package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// PedidoFilter is bound from query string of GET /v1/pedidos.
type PedidoFilter struct {
	Estado string `form:"estado"` // empty = all
	Fecha  string `form:"fecha"`  // YYYY-MM-DD; empty = any
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PedidoListResponse struct {
	Data  []PedidoResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemPedidoRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1,max=2147483647"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
}

type CrearPedidoRequest struct {
	ClienteNombre   string              `json:"cliente_nombre"   validate:"required,min=2,max=120"`
	ClienteTelefono string              `json:"cliente_telefono" validate:"required,min=6,max=30"`
	Direccion       string              `json:"direccion"        validate:"max=250"`
	ModoEntrega     string              `json:"modo_entrega"     validate:"required,oneof=retiro envio"`
	Items           []ItemPedidoRequest `json:"items"            validate:"required,min=1,dive"`
	Notas           string              `json:"notas"            validate:"max=1000"`
	// ClaveIdempotencia lets a client retry a create with unknown outcome safely.
	ClaveIdempotencia *string `json:"clave_idempotencia" validate:"omitempty,min=8,max=64"`
}

type CambiarEstadoPedidoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=preparado despachado retirado entregado cancelado"`
	Motivo string `json:"motivo" validate:"max=250"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemPedidoResponse struct {
	ProductoID     string          `json:"producto_id"`
	Codigo         string          `json:"codigo,omitempty"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type PedidoResponse struct {
	ID              string               `json:"id"`
	Numero          int                  `json:"numero"`
	ClienteNombre   string               `json:"cliente_nombre"`
	ClienteTelefono string               `json:"cliente_telefono"`
	Direccion       string               `json:"direccion"`
	ModoEntrega     string               `json:"modo_entrega"`
	Estado          string               `json:"estado"`
	Total           decimal.Decimal      `json:"total"`
	Notas           string               `json:"notas"`
	Items           []ItemPedidoResponse `json:"items"`
	CreatedAt       string               `json:"created_at"`
}
