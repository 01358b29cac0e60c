package dto

import (
	"bytes"
	"encoding/json"
	"math"
)

// MaxUnidades is the largest stock or quantity the INT columns hold.
const MaxUnidades = math.MaxInt32

// StockAbsoluto is the stock value of a sync. Definido is false when the key
// was left out of the body; an explicit null means unlimited.
type StockAbsoluto struct {
	Definido bool
	Valor    *int
}

// StockDe returns a defined, limited stock value.
func StockDe(n int) StockAbsoluto { return StockAbsoluto{Definido: true, Valor: &n} }

// StockIlimitado returns an explicit null.
func StockIlimitado() StockAbsoluto { return StockAbsoluto{Definido: true} }

func (s *StockAbsoluto) UnmarshalJSON(b []byte) error {
	s.Definido = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		s.Valor = nil
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	s.Valor = &n
	return nil
}

func (s StockAbsoluto) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Valor)
}

// SyncStockRequest overwrites a product's stock. Exactly one of ProductoID or
// Codigo identifies the product. Stock is required: an integer >= 0, or null
// to mark the product unlimited.
type SyncStockRequest struct {
	ProductoID *string       `json:"producto_id" validate:"omitempty,uuid"`
	Codigo     *string       `json:"codigo"      validate:"omitempty,min=1"`
	Stock      StockAbsoluto `json:"stock"       swaggertype:"integer" extensions:"x-nullable"`
}

type SyncStockLoteRequest struct {
	Items []SyncStockRequest `json:"items" validate:"required,min=1,max=1000"`
}

// Resultados de sincronizacion por fila.
const (
	SyncOK           = "ok"
	SyncNoEncontrado = "no_encontrado"
	SyncInvalido     = "invalido"
	SyncErrorInterno = "error"
)

type SyncStockResultado struct {
	Indice     int     `json:"indice"`
	ProductoID *string `json:"producto_id,omitempty"`
	Codigo     *string `json:"codigo,omitempty"`
	Resultado  string  `json:"resultado"`
	Detalle    string  `json:"detalle,omitempty"`
}

type SyncStockLoteResponse struct {
	Actualizados int                  `json:"actualizados"`
	Fallidos     int                  `json:"fallidos"`
	Resultados   []SyncStockResultado `json:"resultados"`
}

type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior *int    `json:"stock_anterior"`
	StockNuevo    *int    `json:"stock_nuevo"`
	Motivo        string  `json:"motivo"`
	ReferenciaID  *string `json:"referencia_id"`
	CreatedAt     string  `json:"created_at"`
}

type MovimientoStockFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Tipo       string `form:"tipo"`
	Page       int    `form:"page,default=1"    validate:"min=1"`
	Limit      int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
