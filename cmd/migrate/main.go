// cmd/migrate/main.go: Aplica o revierte las migraciones embebidas.
// Uso: go run ./cmd/migrate [up|down|goto N|status]
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"topneum/internal/config"
	"topneum/internal/infra"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	m, err := infra.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("db", dbErr).Msg("close failed")
		}
	}()

	switch os.Args[1] {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info().Msg("sin cambios: la base ya esta al dia")
		case err != nil:
			log.Fatal().Err(err).Msg("up")
		default:
			log.Info().Msg("migraciones aplicadas")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatal().Err(err).Msg("down")
		}
		log.Info().Msg("ultima migracion revertida")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatal().Msg("falta la version")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("version invalida")
		}
		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Uint64("version", version).Msg("goto")
		}
		log.Info().Uint64("version", version).Msg("base en la version pedida")

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Info().Msg("no se aplico ninguna migracion")
		case err != nil:
			log.Fatal().Err(err).Msg("status")
		default:
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("version actual")
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Uso: go run ./cmd/migrate [comando]")
	fmt.Println("  up     - aplica las migraciones pendientes")
	fmt.Println("  down   - revierte la ultima migracion")
	fmt.Println("  goto N - migra a la version N")
	fmt.Println("  status - muestra la version actual")
}
