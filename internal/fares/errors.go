package fares

import (
	"errors"

	"github.com/richxcame/delivery-fares/pkg/validation"
)

var (
	// ErrNoActiveConfiguration is returned by a ConfigRepository that holds no active version
	ErrNoActiveConfiguration = errors.New("no active fare configuration")
	// ErrConfigurationUnavailable means the configuration or rule store could not be read
	ErrConfigurationUnavailable = errors.New("fare configuration unavailable")
	// ErrStoreWrite means an insert, update or delete was not persisted
	ErrStoreWrite = errors.New("fare store write failed")
	// ErrSurgeRuleNotFound is returned for an unknown surge rule id
	ErrSurgeRuleNotFound = errors.New("surge pricing rule not found")
)

// ValidationError lists the offending input fields
type ValidationError = validation.ValidationError

// IsValidationError reports whether err carries field validation failures
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
