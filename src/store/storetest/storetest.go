// Package storetest opens throwaway SQLite databases for tests.
package storetest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"userapi/config"
)

// NewDatabase returns an in-memory SQLite database with the users table
// created. It is closed when the test ends.
func NewDatabase(t testing.TB) *config.Database {
	t.Helper()

	db, err := config.OpenDatabase(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Name:   ":memory:",
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.EnsureSchema(context.Background()))
	return db
}
