package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de pedido.
const (
	EstadoPendientePreparacion = "pendiente_preparacion"
	EstadoPreparado            = "preparado"
	EstadoDespachado           = "despachado"
	EstadoRetirado             = "retirado"
	EstadoEntregado            = "entregado"
	EstadoCancelado            = "cancelado"
)

// Modos de entrega.
const (
	ModoRetiro = "retiro"
	ModoEnvio  = "envio"
)

// Pedido is a customer order. It is created only together with its items,
// inside the order fulfillment transaction.
type Pedido struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero            int             `gorm:"uniqueIndex;not null"`
	ClienteNombre     string          `gorm:"not null"`
	ClienteTelefono   string          `gorm:"not null"`
	Direccion         string          `gorm:"not null;default:''"`
	ModoEntrega       string          `gorm:"not null"`
	Estado            string          `gorm:"not null;default:'pendiente_preparacion'"`
	Total             decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Notas             string          `gorm:"not null;default:''"`
	ClaveIdempotencia *string         `gorm:"uniqueIndex"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items []PedidoItem `gorm:"foreignKey:PedidoID;constraint:OnDelete:CASCADE"`
}

// PedidoItem is one product/quantity/price line. It never outlives its Pedido.
type PedidoItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName keeps the snake_case plural used by the migrations.
func (PedidoItem) TableName() string { return "pedido_items" }
