package dto

import (
	"topneum/internal/pricing"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Codigo      string          `json:"codigo"      validate:"required,min=2,max=40"`
	Marca       string          `json:"marca"       validate:"required,max=60"`
	Modelo      string          `json:"modelo"      validate:"max=80"`
	Medida      string          `json:"medida"      validate:"max=30"`
	Descripcion *string         `json:"descripcion"`
	Costo       decimal.Decimal `json:"costo"       validate:"min=0"`
	// Stock nil means unlimited/unknown.
	Stock *int `json:"stock" validate:"omitempty,min=0,max=2147483647"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Codigo string `form:"codigo"`
	Marca  string `form:"marca"`
	Medida string `form:"medida"`
	Activo string `form:"activo"` // "false" | "all" | default activos
	Page   int    `form:"page,default=1"  validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID          string          `json:"id"`
	Codigo      string          `json:"codigo"`
	Marca       string          `json:"marca"`
	Modelo      string          `json:"modelo"`
	Medida      string          `json:"medida"`
	Descripcion *string         `json:"descripcion"`
	Costo       decimal.Decimal `json:"costo"`
	Stock       *int            `json:"stock"`
	Activo      bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// CotizacionResponse is the price ladder of one product under the active tarifa.
type CotizacionResponse struct {
	ProductoID string                  `json:"producto_id"`
	Codigo     string                  `json:"codigo"`
	Marca      string                  `json:"marca"`
	Medida     string                  `json:"medida"`
	Stock      *int                    `json:"stock"`
	TarifaID   string                  `json:"tarifa_id"`
	Tarifa     string                  `json:"tarifa"`
	Precios    pricing.EscaleraPrecios `json:"precios"`
}
