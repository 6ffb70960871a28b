package persistence

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/savings-portal/internal/config"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	content, err := migrationFiles.ReadFile(names[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "CREATE TABLE IF NOT EXISTS session_kv"))
}

func TestRunMigrations_WithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestPing_Unconfigured(t *testing.T) {
	var pg *Postgres
	var rdb *Redis
	assert.Error(t, pg.Ping(context.Background()))
	assert.Error(t, rdb.Ping(context.Background()))
}
