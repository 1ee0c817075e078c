package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestListExercisesOrdersByDateThenInsertion(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	user, err := repo.CreateUser(ctx, "ada")
	require.NoError(t, err)

	for _, e := range []domain.Exercise{
		{UserID: user.ID, Description: "late", DurationMin: 10, Date: day(2023, time.February, 1)},
		{UserID: user.ID, Description: "early-a", DurationMin: 20, Date: day(2023, time.January, 1)},
		{UserID: user.ID, Description: "early-b", DurationMin: 30, Date: day(2023, time.January, 1)},
	} {
		_, err := repo.CreateExercise(ctx, e)
		require.NoError(t, err)
	}

	got, err := repo.ListExercises(ctx, user.ID, domain.LogFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "early-a", got[0].Description)
	require.Equal(t, "early-b", got[1].Description)
	require.Equal(t, "late", got[2].Description)
}

func TestListExercisesAppliesBoundsAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	user, err := repo.CreateUser(ctx, "ada")
	require.NoError(t, err)
	other, err := repo.CreateUser(ctx, "grace")
	require.NoError(t, err)

	for _, d := range []time.Time{day(2023, time.January, 1), day(2023, time.January, 15), day(2023, time.February, 1)} {
		_, err := repo.CreateExercise(ctx, domain.Exercise{UserID: user.ID, Description: "run", DurationMin: 30, Date: d})
		require.NoError(t, err)
	}
	_, err = repo.CreateExercise(ctx, domain.Exercise{UserID: other.ID, Description: "swim", DurationMin: 30, Date: day(2023, time.January, 15)})
	require.NoError(t, err)

	from, to := day(2023, time.January, 15), day(2023, time.February, 1)
	got, err := repo.ListExercises(ctx, user.ID, domain.LogFilter{From: &from, To: &to, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2, "bounds are inclusive")

	got, err = repo.ListExercises(ctx, user.ID, domain.LogFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, day(2023, time.January, 1), got[0].Date)
}

func TestUsersKeepInsertionOrderAndUnknownIsNil(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	first, err := repo.CreateUser(ctx, "same")
	require.NoError(t, err)
	second, err := repo.CreateUser(ctx, "same")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.User{first, second}, users)

	missing, err := repo.GetUser(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}
