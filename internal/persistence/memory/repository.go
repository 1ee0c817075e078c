// Package memory keeps users and exercises in process memory for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/domain"
)

type storedExercise struct {
	exercise domain.Exercise
	seq      int64
}

// Repository stores documents in maps guarded by a RWMutex.
type Repository struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	order     []string
	exercises map[string][]storedExercise
	seq       int64
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		users:     make(map[string]domain.User),
		exercises: make(map[string][]storedExercise),
	}
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user := domain.User{ID: uuid.NewString(), Username: username}
	r.users[user.ID] = user
	r.order = append(r.order, user.ID)
	return user, nil
}

// ListUsers returns users in insertion order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.users[id])
	}
	return users, nil
}

// GetUser returns nil when the id is unknown.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// CreateExercise implements domain.ExerciseRepository.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	if err := ctx.Err(); err != nil {
		return domain.Exercise{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	exercise.ID = uuid.NewString()
	r.seq++
	r.exercises[exercise.UserID] = append(r.exercises[exercise.UserID], storedExercise{exercise: exercise, seq: r.seq})
	return exercise, nil
}

// ListExercises returns matching entries date ascending, insertion order within a day.
func (r *Repository) ListExercises(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	matched := make([]storedExercise, 0, len(r.exercises[userID]))
	for _, entry := range r.exercises[userID] {
		if filter.Matches(entry.exercise.Date) {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].exercise.Date.Equal(matched[j].exercise.Date) {
			return matched[i].exercise.Date.Before(matched[j].exercise.Date)
		}
		return matched[i].seq < matched[j].seq
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]domain.Exercise, 0, len(matched))
	for _, entry := range matched {
		out = append(out, entry.exercise)
	}
	return out, nil
}

// Ping always succeeds.
func (r *Repository) Ping(context.Context) error { return nil }

// Close is a no-op.
func (r *Repository) Close(context.Context) error { return nil }
