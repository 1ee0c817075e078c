//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/exercisetracker/internal/domain"
)

func setupPostgres(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("tracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	repo, err := Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema bootstrap is idempotent")
	return repo
}

func TestRepositoryRoundTripsUsersAndLogs(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgres(t, ctx)

	first, err := repo.CreateUser(ctx, "ada")
	require.NoError(t, err)
	second, err := repo.CreateUser(ctx, "ada")
	require.NoError(t, err)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.User{first, second}, users)

	missing, err := repo.GetUser(ctx, "not-a-uuid")
	require.NoError(t, err)
	require.Nil(t, missing)

	for _, d := range []time.Time{
		time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
	} {
		_, err := repo.CreateExercise(ctx, domain.Exercise{UserID: first.ID, Description: "run", DurationMin: 30, Date: d})
		require.NoError(t, err)
	}

	all, err := repo.ListExercises(ctx, first.ID, domain.LogFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Sun Jan 01 2023", all[0].DisplayDate())
	require.Equal(t, "Wed Feb 01 2023", all[2].DisplayDate())

	from := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	ranged, err := repo.ListExercises(ctx, first.ID, domain.LogFilter{From: &from, To: &to, Limit: 500})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.Equal(t, "Sun Jan 15 2023", ranged[0].DisplayDate())

	limited, err := repo.ListExercises(ctx, first.ID, domain.LogFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
