package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healthatlas/internal/infrastructure/clients/postgres"
)

//go:embed schema.sql
var schema string

// Migrate creates the PostGIS extension, tables and indexes when missing.
// Every statement is idempotent so it is safe on each start.
func Migrate(ctx context.Context, client *postgres.Client) error {
	tx, err := client.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	log.Info().Msg("Database schema is up to date")
	return nil
}
