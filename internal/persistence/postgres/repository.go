// Package postgres provides PostgreSQL-backed persistence for users and exercises.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
)

//go:embed schema.sql
var schema string

// Repository stores users and exercises in two tables. exercises.user_id is not a
// foreign key; the service checks the owner exists before inserting.
type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewRepository(pool), nil
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{ID: uuid.NewString(), Username: username}

	const stmt = `INSERT INTO users (user_id, username) VALUES ($1, $2)`
	if _, err := r.pool.Exec(ctx, stmt, user.ID, user.Username); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ListUsers returns users in creation order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT user_id::text, username FROM users ORDER BY seq`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns nil for unknown ids and for ids that are not UUIDs.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const query = `SELECT user_id::text, username FROM users WHERE user_id = $1`

	var u domain.User
	if err := r.pool.QueryRow(ctx, query, parsed.String()).Scan(&u.ID, &u.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateExercise implements domain.ExerciseRepository.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	exercise.ID = uuid.NewString()
	exercise.Date = domain.StartOfDay(exercise.Date)

	const stmt = `INSERT INTO exercises (exercise_id, user_id, description, duration_min, performed_on)
        VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, stmt,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.DurationMin,
		exercise.Date,
	)
	if err != nil {
		return domain.Exercise{}, err
	}
	return exercise, nil
}

// ListExercises returns matching entries ordered by date, then insertion sequence.
func (r *Repository) ListExercises(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	query, args := logQuery(userID, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		var e domain.Exercise
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &e.DurationMin, &e.Date); err != nil {
			return nil, err
		}
		e.Date = domain.StartOfDay(e.Date)
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func logQuery(userID string, filter domain.LogFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT exercise_id::text, user_id, description, duration_min, performed_on
        FROM exercises WHERE user_id = $1`)
	args := []interface{}{userID}

	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&b, " AND performed_on >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&b, " AND performed_on <= $%d", len(args))
	}

	b.WriteString(" ORDER BY performed_on, seq")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

// Ping checks a pooled connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *Repository) Close(context.Context) error {
	r.pool.Close()
	return nil
}
