package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func parametrosBase() Parametros {
	return Parametros{
		JitterMin:                 d("1.0"),
		JitterMax:                 d("1.3"),
		RedondeoLista:             d("1000"),
		RedondeoVenta:             d("100"),
		IVA:                       d("0.21"),
		MargenOnline:              d("0.10"),
		Recargo3:                  d("0.15"),
		Recargo6:                  d("0.25"),
		Recargo12:                 d("0.50"),
		DescuentoContadoCABA:      d("0.10"),
		DescuentoContadoInterior:  d("0.05"),
		MargenMayoristaFacturado:  d("0.30"),
		MargenMayoristaSinFactura: d("0.20"),
	}
}

func TestRedondear(t *testing.T) {
	cases := []struct {
		value, unidad, want string
	}{
		{"12000", "1000", "12000"},
		{"12499", "1000", "12000"},
		{"12500", "1000", "13000"},
		{"13249.99", "100", "13200"},
		{"13250", "100", "13300"},
		{"0", "100", "0"},
		{"47", "0.5", "47"},
	}
	for _, tc := range cases {
		got := Redondear(d(tc.value), d(tc.unidad))
		assert.True(t, got.Equal(d(tc.want)), "Redondear(%s, %s) = %s, want %s", tc.value, tc.unidad, got, tc.want)
	}
}

func TestCalcular_EscenarioListaYOnline(t *testing.T) {
	e, err := Calcular(d("10000"), parametrosBase(), d("1.2"))
	require.NoError(t, err)

	assert.True(t, e.Lista.Equal(d("12000")), "lista = %s", e.Lista)
	assert.True(t, e.Online.Equal(d("13200")), "online = %s", e.Online)
	assert.True(t, e.Jitter.Equal(d("1.2")))
}

func TestCalcular_EscaleraCompleta(t *testing.T) {
	e, err := Calcular(d("10000"), parametrosBase(), d("1.2"))
	require.NoError(t, err)

	// online 13200
	assert.True(t, e.Cuotas3.Equal(d("15200")), "cuotas_3 = %s", e.Cuotas3)   // 15180 → 15200
	assert.True(t, e.Cuotas6.Equal(d("16500")), "cuotas_6 = %s", e.Cuotas6)   // 16500
	assert.True(t, e.Cuotas12.Equal(d("19800")), "cuotas_12 = %s", e.Cuotas12) // 19800
	// 13200 / 1.21 = 10909.09…; * 0.90 = 9818.18 → 9800; * 0.95 = 10363.63 → 10400
	assert.True(t, e.ContadoCABA.Equal(d("9800")), "contado_caba = %s", e.ContadoCABA)
	assert.True(t, e.ContadoInterior.Equal(d("10400")), "contado_interior = %s", e.ContadoInterior)
	// wholesale tiers are priced from cost, not from list
	assert.True(t, e.MayoristaFacturado.Equal(d("13000")), "mayorista_facturado = %s", e.MayoristaFacturado)
	assert.True(t, e.MayoristaSinFactura.Equal(d("12000")), "mayorista_sin_factura = %s", e.MayoristaSinFactura)
}

func TestCalcular_UsaRedondeoDeLaTarifa(t *testing.T) {
	p := parametrosBase()
	p.RedondeoLista = d("500")
	p.RedondeoVenta = d("50")

	e, err := Calcular(d("10100"), p, d("1.2"))
	require.NoError(t, err)

	// 12120 → nearest 500 = 12000; 12000*1.1 = 13200 → nearest 50 = 13200
	assert.True(t, e.Lista.Equal(d("12000")), "lista = %s", e.Lista)
	assert.True(t, e.Online.Mod(d("50")).IsZero())
}

func TestCalcular_Determinista(t *testing.T) {
	p := parametrosBase()
	a, err := Calcular(d("87654.32"), p, d("1.137"))
	require.NoError(t, err)
	b, err := Calcular(d("87654.32"), p, d("1.137"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalcular_ListaAcotadaPorJitterMax(t *testing.T) {
	p := parametrosBase()
	costo := d("73421")
	cota := Redondear(costo.Mul(p.JitterMax), p.RedondeoLista)

	src := NewRandJitter(42)
	for i := 0; i < 500; i++ {
		j := src.Jitter(p.JitterMin, p.JitterMax)
		e, err := Calcular(costo, p, j)
		require.NoError(t, err)
		assert.True(t, e.Lista.LessThanOrEqual(cota), "lista %s > cota %s (jitter %s)", e.Lista, cota, j)
	}
}

func TestCalcular_CostoNegativo(t *testing.T) {
	_, err := Calcular(d("-1"), parametrosBase(), d("1.1"))
	assert.ErrorIs(t, err, ErrCostoInvalido)
}

func TestCalcular_CostoCero(t *testing.T) {
	e, err := Calcular(decimal.Zero, parametrosBase(), d("1.1"))
	require.NoError(t, err)
	assert.True(t, e.Lista.IsZero())
	assert.True(t, e.MayoristaFacturado.IsZero())
}

func TestCalcular_JitterFueraDeRango(t *testing.T) {
	_, err := Calcular(d("1000"), parametrosBase(), d("1.5"))
	assert.ErrorIs(t, err, ErrParametrosInvalidos)
}

func TestParametros_Validar(t *testing.T) {
	p := parametrosBase()
	assert.Empty(t, p.Validar())

	p.JitterMin = d("1.4")
	p.RedondeoVenta = decimal.Zero
	p.Recargo6 = d("-1.5")
	p.DescuentoContadoCABA = d("1.2")
	fields := p.Validar()

	assert.Contains(t, fields, "jitter_max")
	assert.Contains(t, fields, "redondeo_venta")
	assert.Contains(t, fields, "recargo_6")
	assert.Contains(t, fields, "descuento_contado_caba")
	assert.NotContains(t, fields, "recargo_3")
}

func TestCalculadora_CotizarConJitterFijo(t *testing.T) {
	calc := NewCalculadora(JitterFijo(d("1.2")))
	e, err := calc.Cotizar(d("10000"), parametrosBase())
	require.NoError(t, err)
	assert.True(t, e.Lista.Equal(d("12000")))
}

func TestRandJitter_MismaSemillaMismaSecuencia(t *testing.T) {
	p := parametrosBase()
	a, b := NewRandJitter(7), NewRandJitter(7)
	for i := 0; i < 20; i++ {
		ja := a.Jitter(p.JitterMin, p.JitterMax)
		jb := b.Jitter(p.JitterMin, p.JitterMax)
		assert.True(t, ja.Equal(jb))
		assert.True(t, ja.GreaterThanOrEqual(p.JitterMin) && ja.LessThanOrEqual(p.JitterMax))
	}
}

func TestJitterFijo_RespetaLimites(t *testing.T) {
	assert.True(t, JitterFijo(d("2")).Jitter(d("1"), d("1.3")).Equal(d("1.3")))
	assert.True(t, JitterFijo(d("0.5")).Jitter(d("1"), d("1.3")).Equal(d("1")))
}
