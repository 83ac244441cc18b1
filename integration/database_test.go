//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startDatabase runs req until the test ends and returns the host and mapped port.
func startDatabase(t *testing.T, req testcontainers.ContainerRequest, port nat.Port) (string, string) {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

// runAgainstServer points tally at a fresh server schema and runs the report flow.
func runAgainstServer(t *testing.T, backend, connect string) {
	t.Setenv("TALLY_STORE_BACKEND", backend)
	t.Setenv("TALLY_STORE_DB_CONNECT", connect)

	for _, args := range [][]string{{"store", "clear"}, {"store", "migrate"}} {
		_, err := runTallyCommand(t, args...)
		require.NoError(t, err, "tally %v", args)
	}
	runReportFlow(t)
}

func TestTallyWithMySQL(t *testing.T) {
	host, port := startDatabase(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "tally-pass",
			"MYSQL_DATABASE":      "tally",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(time.Minute),
	}, "3306/tcp")

	runAgainstServer(t, "mysql", fmt.Sprintf("root:tally-pass@tcp(%s:%s)/tally?parseTime=true", host, port))
}

func TestTallyWithPostgres(t *testing.T) {
	host, port := startDatabase(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env:          map[string]string{"POSTGRES_HOST_AUTH_METHOD": "trust"},
		// Postgres restarts once after the init scripts run
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(time.Minute),
	}, "5432/tcp")

	runAgainstServer(t, "postgresql", fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port))
}
