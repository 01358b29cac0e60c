// cmd/seed/main.go: Carga un catalogo de demo y publica una tarifa inicial.
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"errors"

	"topneum/internal/config"
	"topneum/internal/dto"
	"topneum/internal/infra"
	"topneum/internal/repository"
	"topneum/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type productoDemo struct {
	codigo, marca, modelo, medida, costo string
	stock                                int
}

var catalogo = []productoDemo{
	{"PIR-P7-2055516", "Pirelli", "Cinturato P7", "205/55R16", "98500", 12},
	{"PIR-SC-1956515", "Pirelli", "Scorpion", "195/65R15", "87300", 8},
	{"MIC-PR4-2254517", "Michelin", "Primacy 4", "225/45R17", "142000", 6},
	{"BRI-T005-1856515", "Bridgestone", "Turanza T005", "185/65R15", "76400", 20},
	{"FAT-AX-1757013", "Fate", "Advance AR-360", "175/70R13", "51200", 30},
	{"GY-EF-2156016", "Goodyear", "EfficientGrip", "215/60R16", "104900", 4},
}

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	ctx := context.Background()
	productoRepo := repository.NewProductoRepository(db)
	productos := service.NewProductoService(productoRepo)
	// No dispatcher or cache: the seed runs before the server.
	tarifas := service.NewTarifaService(repository.NewTarifaRepository(db), productoRepo, nil, nil)

	for _, p := range catalogo {
		stock := p.stock
		_, err := productos.Crear(ctx, dto.CrearProductoRequest{
			Codigo: p.codigo,
			Marca:  p.marca,
			Modelo: p.modelo,
			Medida: p.medida,
			Costo:  *dec(p.costo),
			Stock:  &stock,
		})
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			log.Info().Str("codigo", p.codigo).Msg("producto ya existe")
		case err != nil:
			log.Fatal().Err(err).Str("codigo", p.codigo).Msg("crear producto")
		}
	}

	if activa, err := tarifas.ObtenerActiva(ctx); err == nil {
		log.Info().Str("tarifa", activa.Nombre).Msg("ya hay una tarifa activa, no se publica otra")
		return
	}
	t, err := tarifas.Crear(ctx, dto.CrearTarifaRequest{
		Nombre: "Tarifa inicial",
		Activa: true,
		TarifaParametrosRequest: dto.TarifaParametrosRequest{
			JitterMin:                 dec("1.00"),
			JitterMax:                 dec("1.30"),
			RedondeoLista:             dec("1000"),
			RedondeoVenta:             dec("100"),
			IVA:                       dec("0.21"),
			MargenOnline:              dec("0.10"),
			Recargo3:                  dec("0.15"),
			Recargo6:                  dec("0.25"),
			Recargo12:                 dec("0.50"),
			DescuentoContadoCABA:      dec("0.10"),
			DescuentoContadoInterior:  dec("0.05"),
			MargenMayoristaFacturado:  dec("0.30"),
			MargenMayoristaSinFactura: dec("0.20"),
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear tarifa")
	}
	log.Info().Str("tarifa_id", t.ID).Int("productos", len(catalogo)).Msg("seed completo")
}
