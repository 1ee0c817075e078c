package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"example.com/exercisetracker/internal/domain"
)

const maxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		mustRegister(validate, "integer", func(fl validator.FieldLevel) bool {
			_, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
			return err == nil
		})
		mustRegister(validate, "calendardate", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseDate(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// mustRegister panics on a bad tag or nil func; both are programming errors.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// scalar accepts a JSON string or number and keeps its text form, so JSON and
// form-encoded bodies decode into the same request structs.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = scalar(num.String())
	return nil
}

// CreateUserRequest is the body for POST /api/users.
type CreateUserRequest struct {
	Username string `form:"username" validate:"required"`
}

// CreateExerciseRequest is the body for POST /api/users/{id}/exercises.
type CreateExerciseRequest struct {
	Description string `form:"description" validate:"required"`
	Duration    string `form:"duration" validate:"required,integer"`
	Date        string `form:"date" validate:"omitempty,calendardate"`
}

// LogQuery holds the GET /api/users/{id}/logs query parameters.
type LogQuery struct {
	From  string `form:"from" validate:"omitempty,calendardate"`
	To    string `form:"to" validate:"omitempty,calendardate"`
	Limit string `form:"limit"`
}

type createUserBody struct {
	Username scalar `json:"username"`
}

type createExerciseBody struct {
	Description scalar `json:"description"`
	Duration    scalar `json:"duration"`
	Date        scalar `json:"date"`
}

func decodeCreateUser(r *http.Request) (CreateUserRequest, error) {
	if isJSON(r) {
		var body createUserBody
		if err := decodeJSON(r, &body); err != nil {
			return CreateUserRequest{}, err
		}
		return CreateUserRequest{Username: strings.TrimSpace(string(body.Username))}, nil
	}
	if err := parseForm(r); err != nil {
		return CreateUserRequest{}, err
	}
	return CreateUserRequest{Username: strings.TrimSpace(r.FormValue("username"))}, nil
}

func decodeCreateExercise(r *http.Request) (CreateExerciseRequest, error) {
	if isJSON(r) {
		var body createExerciseBody
		if err := decodeJSON(r, &body); err != nil {
			return CreateExerciseRequest{}, err
		}
		return CreateExerciseRequest{
			Description: strings.TrimSpace(string(body.Description)),
			Duration:    strings.TrimSpace(string(body.Duration)),
			Date:        strings.TrimSpace(string(body.Date)),
		}, nil
	}
	if err := parseForm(r); err != nil {
		return CreateExerciseRequest{}, err
	}
	return CreateExerciseRequest{
		Description: strings.TrimSpace(r.FormValue("description")),
		Duration:    strings.TrimSpace(r.FormValue("duration")),
		Date:        strings.TrimSpace(r.FormValue("date")),
	}, nil
}

func decodeLogQuery(r *http.Request) LogQuery {
	q := r.URL.Query()
	return LogQuery{
		From:  strings.TrimSpace(q.Get("from")),
		To:    strings.TrimSpace(q.Get("to")),
		Limit: strings.TrimSpace(q.Get("limit")),
	}
}

// toInput converts a validated request into the service input.
func (req CreateExerciseRequest) toInput(userID string) (domain.LogExerciseInput, error) {
	duration, err := strconv.Atoi(req.Duration)
	if err != nil {
		return domain.LogExerciseInput{}, &domain.ValidationError{Field: "duration", Reason: "must be an integer"}
	}
	input := domain.LogExerciseInput{
		UserID:      userID,
		Description: req.Description,
		DurationMin: duration,
	}
	if req.Date != "" {
		date, err := domain.ParseDate(req.Date)
		if err != nil {
			return domain.LogExerciseInput{}, &domain.ValidationError{Field: "date", Reason: "is not a recognised date"}
		}
		input.Date = &date
	}
	return input, nil
}

// toFilter converts validated query parameters. Unusable limits become 0 so the
// service applies its default.
func (q LogQuery) toFilter() (domain.LogFilter, error) {
	var filter domain.LogFilter
	if q.From != "" {
		from, err := domain.ParseDate(q.From)
		if err != nil {
			return domain.LogFilter{}, &domain.ValidationError{Field: "from", Reason: "is not a recognised date"}
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := domain.ParseDate(q.To)
		if err != nil {
			return domain.LogFilter{}, &domain.ValidationError{Field: "to", Reason: "is not a recognised date"}
		}
		filter.To = &to
	}
	if parsed, err := strconv.Atoi(q.Limit); err == nil && parsed > 0 {
		filter.Limit = parsed
	}
	return filter, nil
}

// validateRequest runs struct validation and converts the first failure into a domain.ValidationError.
func validateRequest(req interface{}) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	first := fieldErrs[0]
	reason := "is invalid"
	switch first.Tag() {
	case "required":
		reason = "is required"
	case "integer":
		reason = "must be an integer"
	case "calendardate":
		reason = "is not a recognised date"
	}
	return &domain.ValidationError{Field: first.Field(), Reason: reason}
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &domain.ValidationError{Field: "body", Reason: "is not valid JSON"}
	}
	return nil
}

func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return &domain.ValidationError{Field: "body", Reason: "is not a valid form"}
		}
		return nil
	}
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	}
	if err := r.ParseForm(); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "is not a valid form"}
	}
	return nil
}
