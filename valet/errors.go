package valet

import (
	"errors"
	"fmt"
)

// ErrDepartureConfirmationRequired is returned from HandOver when the guest
// is due to check out today and the caller has not yet said whether the
// guest is truly departing.
var ErrDepartureConfirmationRequired = errors.New("departure confirmation required")

// ValidationError reports a rejected input before any persistence call is
// made. It carries the offending field so forms can surface it in place.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsValidationError unwraps err into a ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
