package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a tire (or accessory) in the single-warehouse catalog.
// Stock nil means unlimited/unknown: it is never checked nor decremented.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"uniqueIndex;not null"`
	Marca       string    `gorm:"index;not null"`
	Modelo      string    `gorm:"not null;default:''"`
	Medida      string    `gorm:"index;not null;default:''"` // e.g. 205/55R16
	Descripcion *string
	Costo       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Stock       *int
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TieneStock reports whether cantidad units can be reserved.
func (p *Producto) TieneStock(cantidad int) bool {
	return p.Stock == nil || *p.Stock >= cantidad
}
