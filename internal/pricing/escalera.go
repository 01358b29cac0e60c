// Package pricing derives the full price ladder of a product from its cost and
// the parameters of a tarifa. Everything here is pure except the jitter draw,
// which lives behind JitterSource so callers can pin it.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCostoInvalido       = errors.New("pricing: costo negativo")
	ErrParametrosInvalidos = errors.New("pricing: parametros de tarifa invalidos")
)

var (
	uno       = decimal.NewFromInt(1)
	menosUno  = decimal.NewFromInt(-1)
	precision = int32(4) // jitter is stored as decimal(8,4)
)

// Parametros are the numeric knobs of a tarifa. Margins, surcharges and
// discounts are fractions (0.10 = 10%).
type Parametros struct {
	JitterMin                 decimal.Decimal `json:"jitter_min"`
	JitterMax                 decimal.Decimal `json:"jitter_max"`
	RedondeoLista             decimal.Decimal `json:"redondeo_lista"`
	RedondeoVenta             decimal.Decimal `json:"redondeo_venta"`
	IVA                       decimal.Decimal `json:"iva"`
	MargenOnline              decimal.Decimal `json:"margen_online"`
	Recargo3                  decimal.Decimal `json:"recargo_3"`
	Recargo6                  decimal.Decimal `json:"recargo_6"`
	Recargo12                 decimal.Decimal `json:"recargo_12"`
	DescuentoContadoCABA      decimal.Decimal `json:"descuento_contado_caba"`
	DescuentoContadoInterior  decimal.Decimal `json:"descuento_contado_interior"`
	MargenMayoristaFacturado  decimal.Decimal `json:"margen_mayorista_facturado"`
	MargenMayoristaSinFactura decimal.Decimal `json:"margen_mayorista_sin_factura"`
}

// EscaleraPrecios is the derived ladder. It is never persisted.
type EscaleraPrecios struct {
	Jitter              decimal.Decimal `json:"jitter"`
	Lista               decimal.Decimal `json:"lista"`
	Online              decimal.Decimal `json:"online"`
	Cuotas3             decimal.Decimal `json:"cuotas_3"`
	Cuotas6             decimal.Decimal `json:"cuotas_6"`
	Cuotas12            decimal.Decimal `json:"cuotas_12"`
	ContadoCABA         decimal.Decimal `json:"contado_caba"`
	ContadoInterior     decimal.Decimal `json:"contado_interior"`
	MayoristaFacturado  decimal.Decimal `json:"mayorista_facturado"`
	MayoristaSinFactura decimal.Decimal `json:"mayorista_sin_factura"`
}

// Validar returns one entry per offending field, keyed by its JSON name.
// An empty map means the parameters are usable.
func (p Parametros) Validar() map[string]string {
	fields := make(map[string]string)

	if !p.JitterMin.IsPositive() {
		fields["jitter_min"] = "debe ser mayor a 0"
	}
	if p.JitterMax.LessThan(p.JitterMin) {
		fields["jitter_max"] = "debe ser mayor o igual a jitter_min"
	}
	if !p.RedondeoLista.IsPositive() {
		fields["redondeo_lista"] = "debe ser mayor a 0"
	}
	if !p.RedondeoVenta.IsPositive() {
		fields["redondeo_venta"] = "debe ser mayor a 0"
	}
	if p.IVA.IsNegative() {
		fields["iva"] = "no puede ser negativo"
	}

	fracciones := map[string]decimal.Decimal{
		"margen_online":                p.MargenOnline,
		"recargo_3":                    p.Recargo3,
		"recargo_6":                    p.Recargo6,
		"recargo_12":                   p.Recargo12,
		"margen_mayorista_facturado":   p.MargenMayoristaFacturado,
		"margen_mayorista_sin_factura": p.MargenMayoristaSinFactura,
	}
	for campo, v := range fracciones {
		if v.LessThan(menosUno) {
			fields[campo] = "debe ser mayor o igual a -1"
		}
	}

	descuentos := map[string]decimal.Decimal{
		"descuento_contado_caba":     p.DescuentoContadoCABA,
		"descuento_contado_interior": p.DescuentoContadoInterior,
	}
	for campo, v := range descuentos {
		if v.LessThan(menosUno) || v.GreaterThan(uno) {
			fields[campo] = "debe estar entre -1 y 1"
		}
	}
	return fields
}

// Redondear rounds value to the nearest multiple of unidad, half away from
// zero (half-up for the non-negative amounts priced here).
func Redondear(value, unidad decimal.Decimal) decimal.Decimal {
	return value.Div(unidad).Round(0).Mul(unidad)
}

// Calcular computes the ladder for a given jitter. Same inputs, same ladder.
func Calcular(costo decimal.Decimal, p Parametros, jitter decimal.Decimal) (EscaleraPrecios, error) {
	if costo.IsNegative() {
		return EscaleraPrecios{}, ErrCostoInvalido
	}
	if fields := p.Validar(); len(fields) > 0 {
		return EscaleraPrecios{}, fmt.Errorf("%w: %v", ErrParametrosInvalidos, fields)
	}
	if jitter.LessThan(p.JitterMin) || jitter.GreaterThan(p.JitterMax) {
		return EscaleraPrecios{}, fmt.Errorf("%w: jitter %s fuera de [%s, %s]",
			ErrParametrosInvalidos, jitter, p.JitterMin, p.JitterMax)
	}

	venta := func(v decimal.Decimal) decimal.Decimal { return Redondear(v, p.RedondeoVenta) }

	lista := Redondear(costo.Mul(jitter), p.RedondeoLista)
	online := venta(lista.Mul(uno.Add(p.MargenOnline)))
	neto := online.Div(uno.Add(p.IVA))

	return EscaleraPrecios{
		Jitter:              jitter,
		Lista:               lista,
		Online:              online,
		Cuotas3:             venta(online.Mul(uno.Add(p.Recargo3))),
		Cuotas6:             venta(online.Mul(uno.Add(p.Recargo6))),
		Cuotas12:            venta(online.Mul(uno.Add(p.Recargo12))),
		ContadoCABA:         venta(neto.Mul(uno.Sub(p.DescuentoContadoCABA))),
		ContadoInterior:     venta(neto.Mul(uno.Sub(p.DescuentoContadoInterior))),
		MayoristaFacturado:  venta(costo.Mul(uno.Add(p.MargenMayoristaFacturado))),
		MayoristaSinFactura: venta(costo.Mul(uno.Add(p.MargenMayoristaSinFactura))),
	}, nil
}

// Calculadora draws a jitter per evaluation and delegates to Calcular.
type Calculadora struct {
	jitter JitterSource
}

func NewCalculadora(js JitterSource) *Calculadora {
	return &Calculadora{jitter: js}
}

// Cotizar returns a fresh ladder. Two calls may differ by design: the jitter
// is redrawn every time.
func (c *Calculadora) Cotizar(costo decimal.Decimal, p Parametros) (EscaleraPrecios, error) {
	if fields := p.Validar(); len(fields) > 0 {
		return EscaleraPrecios{}, fmt.Errorf("%w: %v", ErrParametrosInvalidos, fields)
	}
	return Calcular(costo, p, c.jitter.Jitter(p.JitterMin, p.JitterMax))
}
