// cmd/gentoken/main.go: Emite un JWT de desarrollo firmado con JWT_SECRET.
// Uso: go run ./cmd/gentoken -rol vendedor -ttl 8h
package main

import (
	"flag"
	"fmt"
	"time"

	"topneum/internal/config"
	"topneum/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	rol := flag.String("rol", middleware.RolAdministrador, "rol del token (administrador, vendedor, deposito, integracion)")
	nombre := flag.String("nombre", "dev", "nombre a incluir en el token")
	ttl := flag.Duration("ttl", 8*time.Hour, "vigencia")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET no configurado")
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID: uuid.NewString(),
		Nombre: *nombre,
		Rol:    *rol,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
			Issuer:    "topneum-dev",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("firmar token")
	}
	fmt.Println(token)
}
