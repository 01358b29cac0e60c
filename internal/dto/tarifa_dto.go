package dto

import (
	"topneum/internal/pricing"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// TarifaParametrosRequest carries every numeric parameter; all are required.
// Pointers tell "missing" apart from an explicit zero, see Faltantes.
type TarifaParametrosRequest struct {
	JitterMin                 *decimal.Decimal `json:"jitter_min"`
	JitterMax                 *decimal.Decimal `json:"jitter_max"`
	RedondeoLista             *decimal.Decimal `json:"redondeo_lista"`
	RedondeoVenta             *decimal.Decimal `json:"redondeo_venta"`
	IVA                       *decimal.Decimal `json:"iva"`
	MargenOnline              *decimal.Decimal `json:"margen_online"`
	Recargo3                  *decimal.Decimal `json:"recargo_3"`
	Recargo6                  *decimal.Decimal `json:"recargo_6"`
	Recargo12                 *decimal.Decimal `json:"recargo_12"`
	DescuentoContadoCABA      *decimal.Decimal `json:"descuento_contado_caba"`
	DescuentoContadoInterior  *decimal.Decimal `json:"descuento_contado_interior"`
	MargenMayoristaFacturado  *decimal.Decimal `json:"margen_mayorista_facturado"`
	MargenMayoristaSinFactura *decimal.Decimal `json:"margen_mayorista_sin_factura"`
}

// Faltantes reports every parameter absent from the request body.
func (r TarifaParametrosRequest) Faltantes() map[string]string {
	fields := make(map[string]string)
	for name, v := range map[string]*decimal.Decimal{
		"jitter_min":                   r.JitterMin,
		"jitter_max":                   r.JitterMax,
		"redondeo_lista":               r.RedondeoLista,
		"redondeo_venta":               r.RedondeoVenta,
		"iva":                          r.IVA,
		"margen_online":                r.MargenOnline,
		"recargo_3":                    r.Recargo3,
		"recargo_6":                    r.Recargo6,
		"recargo_12":                   r.Recargo12,
		"descuento_contado_caba":       r.DescuentoContadoCABA,
		"descuento_contado_interior":   r.DescuentoContadoInterior,
		"margen_mayorista_facturado":   r.MargenMayoristaFacturado,
		"margen_mayorista_sin_factura": r.MargenMayoristaSinFactura,
	} {
		if v == nil {
			fields[name] = "requerido"
		}
	}
	return fields
}

// Parametros converts a fully validated request into calculator parameters.
func (r TarifaParametrosRequest) Parametros() pricing.Parametros {
	return pricing.Parametros{
		JitterMin:                 deref(r.JitterMin),
		JitterMax:                 deref(r.JitterMax),
		RedondeoLista:             deref(r.RedondeoLista),
		RedondeoVenta:             deref(r.RedondeoVenta),
		IVA:                       deref(r.IVA),
		MargenOnline:              deref(r.MargenOnline),
		Recargo3:                  deref(r.Recargo3),
		Recargo6:                  deref(r.Recargo6),
		Recargo12:                 deref(r.Recargo12),
		DescuentoContadoCABA:      deref(r.DescuentoContadoCABA),
		DescuentoContadoInterior:  deref(r.DescuentoContadoInterior),
		MargenMayoristaFacturado:  deref(r.MargenMayoristaFacturado),
		MargenMayoristaSinFactura: deref(r.MargenMayoristaSinFactura),
	}
}

type CrearTarifaRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=120"`
	// Activa publishes the tarifa in the same transaction that creates it.
	Activa bool `json:"activa"`
	TarifaParametrosRequest
}

// ActualizarTarifaRequest is a partial update: nil fields are left untouched.
// The active flag is deliberately absent; only publishing changes it.
type ActualizarTarifaRequest struct {
	Nombre                    *string          `json:"nombre" validate:"omitempty,min=2,max=120"`
	JitterMin                 *decimal.Decimal `json:"jitter_min"`
	JitterMax                 *decimal.Decimal `json:"jitter_max"`
	RedondeoLista             *decimal.Decimal `json:"redondeo_lista"`
	RedondeoVenta             *decimal.Decimal `json:"redondeo_venta"`
	IVA                       *decimal.Decimal `json:"iva"`
	MargenOnline              *decimal.Decimal `json:"margen_online"`
	Recargo3                  *decimal.Decimal `json:"recargo_3"`
	Recargo6                  *decimal.Decimal `json:"recargo_6"`
	Recargo12                 *decimal.Decimal `json:"recargo_12"`
	DescuentoContadoCABA      *decimal.Decimal `json:"descuento_contado_caba"`
	DescuentoContadoInterior  *decimal.Decimal `json:"descuento_contado_interior"`
	MargenMayoristaFacturado  *decimal.Decimal `json:"margen_mayorista_facturado"`
	MargenMayoristaSinFactura *decimal.Decimal `json:"margen_mayorista_sin_factura"`
}

// PreviewRequest previews unsaved parameters (POST /v1/tarifas/preview).
type PreviewRequest struct {
	Muestra int     `json:"muestra" validate:"omitempty,min=1,max=50"`
	Semilla *uint64 `json:"semilla"`
	TarifaParametrosRequest
}

// PreviewQuery is bound from the query string of GET /v1/tarifas/:id/preview.
type PreviewQuery struct {
	Muestra int     `form:"muestra" validate:"omitempty,min=1,max=50"`
	Semilla *uint64 `form:"semilla"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TarifaResponse struct {
	ID           string  `json:"id"`
	Nombre       string  `json:"nombre"`
	Activa       bool    `json:"activa"`
	VigenteDesde *string `json:"vigente_desde"`
	VigenteHasta *string `json:"vigente_hasta"`
	pricing.Parametros
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type PreviewItem struct {
	ProductoID string                  `json:"producto_id"`
	Codigo     string                  `json:"codigo"`
	Marca      string                  `json:"marca"`
	Medida     string                  `json:"medida"`
	Costo      decimal.Decimal         `json:"costo"`
	Precios    pricing.EscaleraPrecios `json:"precios"`
}

type PreviewResponse struct {
	TarifaID *string       `json:"tarifa_id,omitempty"`
	Muestra  int           `json:"muestra"`
	Items    []PreviewItem `json:"items"`
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
