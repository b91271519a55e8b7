package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ruleRequest struct {
	Area       string   `json:"area" validate:"required"`
	Multiplier float64  `json:"multiplier" validate:"gte=1"`
	StartTime  string   `json:"start_time" validate:"hhmm"`
	Days       []string `json:"days" validate:"min=1,dive,weekday"`
}

func TestIsClock(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"00:00", true},
		{"06:30", true},
		{"23:59", true},
		{"24:00", false},
		{"7:30", false},
		{"12:60", false},
		{"12-30", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsClock(tt.in))
		})
	}
}

func TestIsWeekday(t *testing.T) {
	assert.True(t, IsWeekday("monday"))
	assert.True(t, IsWeekday(" Friday "))
	assert.True(t, IsWeekday("SUNDAY"))
	assert.False(t, IsWeekday("mon"))
	assert.False(t, IsWeekday(""))
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := ruleRequest{Area: "Kampala", Multiplier: 1.5, StartTime: "22:00", Days: []string{"Friday"}}
		assert.NoError(t, ValidateStruct(req))
	})

	t.Run("reports json field names", func(t *testing.T) {
		req := ruleRequest{Multiplier: 0.5, StartTime: "25:00", Days: []string{"someday"}}

		err := ValidateStruct(req)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "is required", ve.Errors["area"])
		assert.Equal(t, "must be at least 1", ve.Errors["multiplier"])
		assert.Equal(t, "must be a time in HH:MM format", ve.Errors["start_time"])
		assert.Equal(t, "must be a weekday name", ve.Errors["days[0]"])
	})
}

func TestValidationError(t *testing.T) {
	ve := &ValidationError{}
	assert.False(t, ve.HasErrors())
	assert.NoError(t, ve.ErrOrNil())

	ve.AddError("distance_km", "must be greater than 0")
	ve.AddError("distance_km", "ignored")
	ve.AddError("actual_time_minutes", "must not be negative")

	assert.True(t, ve.HasErrors())
	assert.Equal(t, "must be greater than 0", ve.Errors["distance_km"])
	assert.Equal(t,
		"validation failed: actual_time_minutes: must not be negative; distance_km: must be greater than 0",
		ve.Error())
}

func TestValidateStructExcept(t *testing.T) {
	req := ruleRequest{Area: "kampala", Multiplier: 0.8, StartTime: "22:00", Days: []string{"friday"}}

	var ve *ValidationError
	require.ErrorAs(t, ValidateStruct(req), &ve)
	assert.Contains(t, ve.Errors, "multiplier")

	assert.NoError(t, ValidateStructExcept(req, "Multiplier"))

	req.Area = ""
	require.ErrorAs(t, ValidateStructExcept(req, "Multiplier"), &ve)
	assert.Equal(t, map[string]string{"area": "is required"}, ve.Errors)
}
