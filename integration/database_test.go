//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// exerciseBackend runs the board and store commands against one SQL backend.
func exerciseBackend(t *testing.T, env []string) {
	board := writeBoard(t)

	_, err := runBoardline(t, env, "store", "clear")
	require.NoError(t, err)
	_, err = runBoardline(t, env, "history", "clear")
	require.NoError(t, err)

	_, err = runBoardline(t, env, "hide", board, "review")
	require.NoError(t, err)
	_, err = runBoardline(t, env, "drag", board, "--item", "launch", "--dy", "25")
	require.NoError(t, err)

	out, err := runBoardline(t, env, "layout", board)
	require.NoError(t, err)
	assert.Contains(t, out, "Hidden: review")

	out, err = runBoardline(t, env, "store", "status")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = runBoardline(t, env, "history", "status")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

// TestBoardlineWithMySQL tests the boardline CLI with a MySQL backend.
func TestBoardlineWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "boardline",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/boardline?parseTime=true", host, port.Port())
	exerciseBackend(t, []string{
		"BOARDLINE_STATE_BACKEND=mysql",
		"BOARDLINE_STATE_DB_CONNECT=" + connStr,
		"BOARDLINE_HISTORY_BACKEND=mysql",
		"BOARDLINE_HISTORY_DB_CONNECT=" + connStr,
	})
}

// TestBoardlineWithPostgres tests the boardline CLI with a PostgreSQL backend.
func TestBoardlineWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseBackend(t, []string{
		"BOARDLINE_STATE_BACKEND=postgresql",
		"BOARDLINE_STATE_DB_CONNECT=" + connStr,
		"BOARDLINE_HISTORY_BACKEND=postgresql",
		"BOARDLINE_HISTORY_DB_CONNECT=" + connStr,
	})
}
