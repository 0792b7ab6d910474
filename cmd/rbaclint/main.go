// cmd/rbaclint/main.go — Static integrity check of the role/permission
// tables: catalog references, superadmin superset, legacy tag mapping.
// Exits non-zero on any divergence; run it in CI next to go vet.
package main

import (
	"os"

	"boutique/internal/rbac"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	registry := rbac.NewRegistry()
	if err := registry.Validate(); err != nil {
		log.Error().Err(err).Msg("rbac tables are inconsistent")
		os.Exit(1)
	}

	for _, role := range rbac.Roles {
		cfg := registry.GetRoleConfig(role)
		log.Info().
			Str("rol", string(role)).
			Int("permissions", len(cfg.Permissions)).
			Int("routes", len(cfg.Routes)).
			Msg("profile ok")
	}
	log.Info().Msg("rbac tables consistent")
}
