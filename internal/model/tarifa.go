package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tarifa is a named pricing profile used to derive sellable prices from cost.
// At most one row has Activa=true; the partial unique index uq_tarifas_activa
// enforces it and only the publish transaction flips the flag.
type Tarifa struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string     `gorm:"not null"`
	Activa       bool       `gorm:"not null;default:false"`
	VigenteDesde *time.Time `gorm:"type:date"`
	VigenteHasta *time.Time `gorm:"type:date"`

	JitterMin                 decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	JitterMax                 decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	RedondeoLista             decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	RedondeoVenta             decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	IVA                       decimal.Decimal `gorm:"column:iva;type:decimal(8,4);not null"`
	MargenOnline              decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	Recargo3                  decimal.Decimal `gorm:"column:recargo_3;type:decimal(8,4);not null"`
	Recargo6                  decimal.Decimal `gorm:"column:recargo_6;type:decimal(8,4);not null"`
	Recargo12                 decimal.Decimal `gorm:"column:recargo_12;type:decimal(8,4);not null"`
	DescuentoContadoCABA      decimal.Decimal `gorm:"column:descuento_contado_caba;type:decimal(8,4);not null"`
	DescuentoContadoInterior  decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	MargenMayoristaFacturado  decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	MargenMayoristaSinFactura decimal.Decimal `gorm:"type:decimal(8,4);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
