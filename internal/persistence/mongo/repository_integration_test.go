//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	mongocontainer "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"example.com/exercisetracker/internal/domain"
)

func setupMongo(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	container, err := mongocontainer.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	repo, err := Connect(ctx, uri, "exercise_tracker_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })

	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestRepositoryRoundTripsUsersAndLogs(t *testing.T) {
	ctx := context.Background()
	repo := setupMongo(t, ctx)

	first, err := repo.CreateUser(ctx, "ada")
	require.NoError(t, err)
	second, err := repo.CreateUser(ctx, "ada")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.User{first, second}, users)

	found, err := repo.GetUser(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, &first, found)

	missing, err := repo.GetUser(ctx, "not-an-object-id")
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
	require.True(t, all[0].Date.Before(all[1].Date))
	require.True(t, all[1].Date.Before(all[2].Date))

	from := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	ranged, err := repo.ListExercises(ctx, first.ID, domain.LogFilter{From: &from, To: &to, Limit: 500})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.Equal(t, "Sun Jan 15 2023", ranged[0].DisplayDate())

	limited, err := repo.ListExercises(ctx, first.ID, domain.LogFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	none, err := repo.ListExercises(ctx, second.ID, domain.LogFilter{Limit: 500})
	require.NoError(t, err)
	require.Empty(t, none)
}
