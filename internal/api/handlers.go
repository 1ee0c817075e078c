// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	errors  ErrorWriter
}

// NewHandler builds a Handler. A nil ErrorWriter selects structured errors.
func NewHandler(service *domain.Service, errs ErrorWriter) *Handler {
	if errs == nil {
		errs = StructuredErrors{}
	}
	return &Handler{service: service, errors: errs}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.healthz)
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
		r.Post("/{id}/exercises", h.createExercise)
		r.Get("/{id}/logs", h.exerciseLog)
	})
}

// healthz reports OK when the store answers a ping.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		writeText(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateUser(r)
	if err == nil {
		err = validateRequest(req)
	}
	if err != nil {
		h.errors.WriteFailure(w, r, legacyCreateUser, err)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Username)
	if err != nil {
		h.errors.WriteFailure(w, r, legacyCreateUser, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toUserView(user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.errors.WriteFailure(w, r, legacyListUsers, err)
		return
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	writeJSON(w, r, http.StatusOK, views)
}

func (h *Handler) createExercise(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.FindUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.WriteFailure(w, r, legacyCreateExercise, err)
		return
	}

	req, err := decodeCreateExercise(r)
	if err == nil {
		err = validateRequest(req)
	}
	var input domain.LogExerciseInput
	if err == nil {
		input, err = req.toInput(user.ID)
	}
	if err != nil {
		h.errors.WriteFailure(w, r, legacyCreateExercise, err)
		return
	}

	exercise, err := h.service.RecordExercise(r.Context(), user, input)
	if err != nil {
		h.errors.WriteFailure(w, r, legacyCreateExercise, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ExerciseView{
		ID:          user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		Duration:    exercise.DurationMin,
		Date:        exercise.DisplayDate(),
	})
}

func (h *Handler) exerciseLog(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.FindUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.WriteFailure(w, r, legacyExerciseLog, err)
		return
	}

	query := decodeLogQuery(r)
	err = validateRequest(query)
	var filter domain.LogFilter
	if err == nil {
		filter, err = query.toFilter()
	}
	if err != nil {
		h.errors.WriteFailure(w, r, legacyExerciseLog, err)
		return
	}

	log, err := h.service.LogFor(r.Context(), user, filter)
	if err != nil {
		h.errors.WriteFailure(w, r, legacyExerciseLog, err)
		return
	}

	entries := make([]LogEntryView, 0, len(log.Exercises))
	for _, e := range log.Exercises {
		entries = append(entries, LogEntryView{
			Description: e.Description,
			Duration:    e.DurationMin,
			Date:        e.DisplayDate(),
		})
	}

	writeJSON(w, r, http.StatusOK, ExerciseLogView{
		Username: log.User.Username,
		Count:    log.Count(),
		ID:       log.User.ID,
		Log:      entries,
	})
}

// UserView is the public shape of a user.
type UserView struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// ExerciseView is returned after an exercise is logged. ID is the owning user's id.
type ExerciseView struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogEntryView is a single entry in an exercise log.
type LogEntryView struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// ExerciseLogView packages a user's filtered log.
type ExerciseLogView struct {
	Username string         `json:"username"`
	Count    int            `json:"count"`
	ID       string         `json:"_id"`
	Log      []LogEntryView `json:"log"`
}

func toUserView(u domain.User) UserView {
	return UserView{ID: u.ID, Username: u.Username}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, r, status, payload)
}

// writeJSON encodes before writing the header, so an encode failure still yields a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("encode response")
		writeText(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("write response")
	}
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
