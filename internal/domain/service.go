// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/exercisetracker/internal/observability"
)

const defaultNotifyTimeout = 2 * time.Second

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ValidationError reports rejected input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// UserRepository persists users. GetUser returns nil, nil for unknown ids.
type UserRepository interface {
	CreateUser(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
}

// ExerciseRepository persists exercise log entries.
type ExerciseRepository interface {
	CreateExercise(ctx context.Context, exercise Exercise) (Exercise, error)
	ListExercises(ctx context.Context, userID string, filter LogFilter) ([]Exercise, error)
}

// Repository is the full store contract used by the service.
type Repository interface {
	UserRepository
	ExerciseRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Notifier receives domain events after they are persisted.
type Notifier interface {
	UserRegistered(ctx context.Context, user User) error
	ExerciseLogged(ctx context.Context, user User, exercise Exercise) error
}

// NoopNotifier discards events.
type NoopNotifier struct{}

// UserRegistered performs no action.
func (NoopNotifier) UserRegistered(context.Context, User) error { return nil }

// ExerciseLogged performs no action.
func (NoopNotifier) ExerciseLogged(context.Context, User, Exercise) error { return nil }

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for default exercise dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithNotifier sets the event sink.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithStoreTimeout bounds every repository call.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = timeout
	}
}

// WithNotifyTimeout bounds each event publication. Without it the store timeout
// applies, or defaultNotifyTimeout when neither is set.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.notifyTimeout = timeout
	}
}

// WithDefaultLimit sets the log size used when the caller gives none.
func WithDefaultLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// Service orchestrates user and exercise workflows.
type Service struct {
	repo          Repository
	notifier      Notifier
	now           func() time.Time
	storeTimeout  time.Duration
	notifyTimeout time.Duration
	defaultLimit  int
	onNotifyErr   func(event string, err error)
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		notifier:     NoopNotifier{},
		now:          time.Now,
		defaultLimit: 500,
		onNotifyErr:  func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnNotifyError registers a callback invoked when event publication fails.
func (s *Service) OnNotifyError(fn func(event string, err error)) {
	if fn != nil {
		s.onNotifyErr = fn
	}
}

// DefaultLimit returns the log size applied when no usable limit is given.
func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// LogExerciseInput captures the payload from the API layer.
type LogExerciseInput struct {
	UserID      string
	Description string
	DurationMin int
	Date        *time.Time
}

// RegisterUser stores a new user. Usernames are not unique.
func (s *Service) RegisterUser(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, &ValidationError{Field: "username", Reason: "is required"}
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.repo.CreateUser(storeCtx, username)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	observability.RecordUserRegistered()

	s.notify(ctx, "user.registered", func(ctx context.Context) error {
		return s.notifier.UserRegistered(ctx, user)
	})
	return user, nil
}

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	users, err := s.repo.ListUsers(storeCtx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// LogExercise records an exercise for an existing user. The user is resolved
// before the input is checked, so an unknown user always reads as not found.
func (s *Service) LogExercise(ctx context.Context, input LogExerciseInput) (User, Exercise, error) {
	user, err := s.FindUser(ctx, input.UserID)
	if err != nil {
		return User{}, Exercise{}, err
	}
	exercise, err := s.RecordExercise(ctx, user, input)
	if err != nil {
		return User{}, Exercise{}, err
	}
	return user, exercise, nil
}

// RecordExercise validates input and stores it against an already resolved user.
func (s *Service) RecordExercise(ctx context.Context, user User, input LogExerciseInput) (Exercise, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return Exercise{}, &ValidationError{Field: "description", Reason: "is required"}
	}
	if input.DurationMin < 1 {
		return Exercise{}, &ValidationError{Field: "duration", Reason: "must be a positive number of minutes"}
	}

	date := StartOfDay(s.now())
	if input.Date != nil {
		date = StartOfDay(*input.Date)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	exercise, err := s.repo.CreateExercise(storeCtx, Exercise{
		UserID:      user.ID,
		Description: description,
		DurationMin: input.DurationMin,
		Date:        date,
	})
	if err != nil {
		return Exercise{}, fmt.Errorf("create exercise: %w", err)
	}
	observability.RecordExerciseLogged(s.now())

	s.notify(ctx, "exercise.logged", func(ctx context.Context) error {
		return s.notifier.ExerciseLogged(ctx, user, exercise)
	})
	return exercise, nil
}

// ExerciseLog returns the user's entries matching filter, date ascending.
func (s *Service) ExerciseLog(ctx context.Context, userID string, filter LogFilter) (ExerciseLog, error) {
	user, err := s.FindUser(ctx, userID)
	if err != nil {
		return ExerciseLog{}, err
	}
	return s.LogFor(ctx, user, filter)
}

// LogFor lists entries for an already resolved user.
func (s *Service) LogFor(ctx context.Context, user User, filter LogFilter) (ExerciseLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.defaultLimit
	}
	if filter.From != nil {
		from := StartOfDay(*filter.From)
		filter.From = &from
	}
	if filter.To != nil {
		to := StartOfDay(*filter.To)
		filter.To = &to
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	exercises, err := s.repo.ListExercises(storeCtx, user.ID, filter)
	if err != nil {
		return ExerciseLog{}, fmt.Errorf("list exercises: %w", err)
	}
	observability.RecordLogQuery(len(exercises))
	return ExerciseLog{User: user, Exercises: exercises}, nil
}

// Ping checks store connectivity.
func (s *Service) Ping(ctx context.Context) error {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.repo.Ping(storeCtx)
}

// FindUser resolves id to a user, returning ErrUserNotFound when it does not exist.
func (s *Service) FindUser(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrUserNotFound
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.repo.GetUser(storeCtx, id)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return User{}, ErrUserNotFound
	}
	return *user, nil
}

// notify runs publish detached from the caller's cancellation and bounded by the
// notify timeout. Failures go to the OnNotifyError callback only.
func (s *Service) notify(ctx context.Context, event string, publish func(context.Context) error) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyBound())
	defer cancel()
	if err := publish(notifyCtx); err != nil {
		s.onNotifyErr(event, err)
	}
}

func (s *Service) notifyBound() time.Duration {
	switch {
	case s.notifyTimeout > 0:
		return s.notifyTimeout
	case s.storeTimeout > 0:
		return s.storeTimeout
	default:
		return defaultNotifyTimeout
	}
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
