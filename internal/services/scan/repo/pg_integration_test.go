//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"shelfscan/internal/modkit/repokit"
	"shelfscan/internal/platform/store"
	"shelfscan/internal/services/scan/domain"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
}

func TestPGIntegration_SaveLoad(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(ctx) })

	s := NewPG("it")(st.PG)
	require.NoError(t, s.EnsureSchema(ctx))

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty.Confirmed)

	want := domain.RegistrySnapshot{Confirmed: []string{"4006381333931"}, Invalid: []string{"00000123"}}
	require.NoError(t, s.Save(ctx, want))
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestPGIntegration_TxRollback(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(ctx) })

	bind := NewPG("tx")
	require.NoError(t, bind(st.PG).EnsureSchema(ctx))

	boom := errors.New("abort")
	err = repokit.InTx(ctx, st.PG, bind, func(s Storage) error {
		require.NoError(t, s.Save(ctx, domain.RegistrySnapshot{Confirmed: []string{"4006381333931"}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := bind(st.PG).Load(ctx)
	require.NoError(t, err)
	require.Empty(t, got.Confirmed)
}
