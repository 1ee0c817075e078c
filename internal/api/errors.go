package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/domain"
)

type failureKind int

const (
	failureInvalidInput failureKind = iota
	failureNotFound
	failureInternal
)

// failure is the flattened outcome of a failed request: a kind plus a message safe to show callers.
type failure struct {
	kind   failureKind
	detail string
}

func classify(err error) failure {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return failure{kind: failureInvalidInput, detail: verr.Error()}
	case errors.Is(err, domain.ErrUserNotFound):
		return failure{kind: failureNotFound, detail: "user not found"}
	default:
		return failure{kind: failureInternal, detail: "internal error"}
	}
}

// Messages written in legacy mode, one per operation.
const (
	legacyNotFound       = "Could not find user"
	legacyCreateUser     = "Error creating user"
	legacyListUsers      = "Error fetching users"
	legacyCreateExercise = "There was an error saving the exercise"
	legacyExerciseLog    = "Error retrieving logs"
)

// ErrorWriter renders failures to the response.
type ErrorWriter interface {
	WriteFailure(w http.ResponseWriter, r *http.Request, legacyMessage string, err error)
}

// StructuredErrors writes JSON problem bodies with meaningful status codes.
type StructuredErrors struct{}

// WriteFailure implements ErrorWriter.
func (StructuredErrors) WriteFailure(w http.ResponseWriter, r *http.Request, _ string, err error) {
	f := classify(err)
	logFailure(r, f, err)
	switch f.kind {
	case failureInvalidInput:
		writeError(w, r, http.StatusBadRequest, "validation_failed", f.detail)
	case failureNotFound:
		writeError(w, r, http.StatusNotFound, "not_found", f.detail)
	default:
		writeError(w, r, http.StatusInternalServerError, "server_error", f.detail)
	}
}

// LegacyErrors answers every failure with 200 and a plain-text message.
type LegacyErrors struct{}

// WriteFailure implements ErrorWriter.
func (LegacyErrors) WriteFailure(w http.ResponseWriter, r *http.Request, legacyMessage string, err error) {
	f := classify(err)
	logFailure(r, f, err)
	message := legacyMessage
	if f.kind == failureNotFound {
		message = legacyNotFound
	}
	writeText(w, http.StatusOK, message)
}

func logFailure(r *http.Request, f failure, err error) {
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if f.kind == failureInternal {
		event = logger.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Msg("request failed")
}
