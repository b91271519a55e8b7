package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the global validator instance
	Validate *validator.Validate

	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	weekdays = map[string]struct{}{
		"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {},
		"thursday": {}, "friday": {}, "saturday": {},
	}
)

func init() {
	Validate = validator.New()

	// Report json names so errors line up with request fields
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = Validate.RegisterValidation("hhmm", validateClock)
	_ = Validate.RegisterValidation("weekday", validateWeekday)
}

// ValidationError collects per-field messages
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError converts validator errors into a ValidationError
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		ve.AddError(fieldName(fe), message(fe))
	}
	return ve
}

// Error implements the error interface; fields are listed in a stable order
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Errors[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AddError records a message for field, keeping the first one
func (e *ValidationError) AddError(field, msg string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	if _, ok := e.Errors[field]; !ok {
		e.Errors[field] = msg
	}
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e as an error only when it holds messages
func (e *ValidationError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	return toValidationError(Validate.Struct(s))
}

// ValidateStructExcept is ValidateStruct skipping the named Go fields
func ValidateStructExcept(s interface{}, fields ...string) error {
	return toValidationError(Validate.StructExcept(s, fields...))
}

func toValidationError(err error) error {
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// IsClock reports whether s is a 24h HH:MM time
func IsClock(s string) bool {
	return clockRegex.MatchString(s)
}

// IsWeekday reports whether s names a weekday, ignoring case and surrounding space
func IsWeekday(s string) bool {
	_, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func validateClock(fl validator.FieldLevel) bool {
	return IsClock(fl.Field().String())
}

func validateWeekday(fl validator.FieldLevel) bool {
	return IsWeekday(fl.Field().String())
}

// fieldName drops the top-level struct name but keeps dives like days[2]
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "weekday":
		return "must be a weekday name"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
