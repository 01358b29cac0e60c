package service_test

import (
	"context"
	"testing"

	"topneum/internal/dto"
	"topneum/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCotizacionService_UsaTarifaActiva(t *testing.T) {
	tarifaSvc, tarifas, productos, _, cache := buildTarifaSvc()
	p := productos.add("PIR-205", "10000", intp(4))
	crearTarifa(t, tarifaSvc, "T1", true)

	svc := service.NewCotizacionService(tarifas, productos, cache)
	resp, err := svc.CotizarPorID(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, "T1", resp.Tarifa)
	assert.True(t, resp.Precios.Lista.Equal(d("12000")))
	assert.True(t, resp.Precios.Online.Equal(d("13200")))
	assert.Equal(t, 4, *resp.Stock)
	assert.Len(t, cache.datos, 1)
}

func TestCotizacionService_PrecioEstableEntreConsultas(t *testing.T) {
	tarifaSvc, tarifas, productos, _, _ := buildTarifaSvc()
	productos.add("PIR-205", "73421", nil)
	params := parametrosBase()
	params.JitterMin = dp("1.0")
	params.JitterMax = dp("1.3")
	_, err := tarifaSvc.Crear(context.Background(), dto.CrearTarifaRequest{Nombre: "T1", Activa: true, TarifaParametrosRequest: params})
	require.NoError(t, err)

	// No cache: stability comes from the per-product seed alone.
	svc := service.NewCotizacionService(tarifas, productos, nil)
	a, err := svc.CotizarPorCodigo(context.Background(), "PIR-205")
	require.NoError(t, err)
	b, err := svc.CotizarPorCodigo(context.Background(), "PIR-205")
	require.NoError(t, err)

	assert.Equal(t, a.Precios, b.Precios)
}

func TestCotizacionService_HitDeCacheRefrescaStock(t *testing.T) {
	tarifaSvc, tarifas, productos, _, cache := buildTarifaSvc()
	p := productos.add("PIR-205", "10000", intp(4))
	crearTarifa(t, tarifaSvc, "T1", true)
	svc := service.NewCotizacionService(tarifas, productos, cache)

	_, err := svc.CotizarPorID(context.Background(), p.ID)
	require.NoError(t, err)
	*productos.productos[p.ID].Stock = 1

	resp, err := svc.CotizarPorID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *resp.Stock)
}

func TestCotizacionService_SinTarifaActiva(t *testing.T) {
	_, tarifas, productos, _, _ := buildTarifaSvc()
	p := productos.add("PIR-205", "10000", nil)

	_, err := service.NewCotizacionService(tarifas, productos, nil).CotizarPorID(context.Background(), p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCotizacionService_ProductoInexistente(t *testing.T) {
	tarifaSvc, tarifas, productos, _, _ := buildTarifaSvc()
	crearTarifa(t, tarifaSvc, "T1", true)
	svc := service.NewCotizacionService(tarifas, productos, nil)

	_, err := svc.CotizarPorID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.CotizarPorCodigo(context.Background(), "nope")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
