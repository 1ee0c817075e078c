package api

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	always := func(validator.FieldLevel) bool { return true }

	require.Panics(t, func() { mustRegister(validator.New(), "", always) })
	require.NotPanics(t, func() { mustRegister(validator.New(), "always", always) })
}

func TestValidateRequestNamesFormFields(t *testing.T) {
	err := validateRequest(CreateExerciseRequest{Description: "run", Duration: "thirty"})

	require.EqualError(t, err, "duration must be an integer")
}
