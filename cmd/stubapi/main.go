// cmd/stubapi/main.go — Runs the in-memory auth upstream with demo users,
// so the gateway can be exercised locally without the real backend.
// Uso: go run ./cmd/stubapi
package main

import (
	"fmt"
	"net/http"
	"os"

	"boutique/internal/authapi/authapitest"

	"github.com/rs/zerolog/log"
)

func main() {
	addr := os.Getenv("STUB_API_ADDR")
	if addr == "" {
		addr = ":8001"
	}

	srv := authapitest.NewServer()
	srv.SeedAccount("super@boutique.local", "superadmin123", "Sofia", "Root", "superuser", "/admin/dashboard")
	srv.SeedAccount("vendedora@boutique.local", "vendedora123", "Valeria", "Mostrador", "staff", "/seller/home")
	srv.SeedAccount("cliente@boutique.local", "cliente123", "Carla", "Compras", "client", "/shop")

	fmt.Println("demo users: super@boutique.local / vendedora@boutique.local / cliente@boutique.local")
	log.Info().Str("addr", addr).Msg("stub auth API listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("stub auth API failed")
	}
}
