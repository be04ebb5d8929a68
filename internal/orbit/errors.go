package orbit

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedElements reports a line that violates the fixed-width
	// element format.
	ErrMalformedElements = errors.New("malformed element set")

	// ErrPropagation reports that the model produced no usable state for the
	// requested instant. Callers treat it as "no data for this step".
	ErrPropagation = errors.New("propagation failed")
)

// Initialization status codes reported by the SGP4 model.
const (
	StatusOK = iota
	StatusMeanElements
	StatusMeanMotion
	StatusPerturbedElements
	StatusSemiLatusRectum
	StatusSubOrbital
	StatusDecayed
)

var statusCauses = map[int]string{
	StatusMeanElements:      "mean elements: eccentricity >= 1.0 or < -0.001, or semi-major axis < 0.95 earth radii",
	StatusMeanMotion:        "mean motion less than 0.0",
	StatusPerturbedElements: "perturbed elements: eccentricity < 0.0 or > 1.0",
	StatusSemiLatusRectum:   "semi-latus rectum < 0.0",
	StatusSubOrbital:        "epoch elements are sub-orbital",
	StatusDecayed:           "satellite has decayed",
}

// StatusCause returns the human-readable cause for an SGP4 status code.
func StatusCause(code int) string {
	if cause, ok := statusCauses[code]; ok {
		return cause
	}
	return fmt.Sprintf("unknown sgp4 status %d", code)
}

// ElementParseError is returned by Initialize when the propagation model
// rejects an element set.
type ElementParseError struct {
	Name  string
	Code  int
	Cause string
	Err   error
}

func (e *ElementParseError) Error() string {
	msg := fmt.Sprintf("element set %q rejected", e.Name)
	if e.Code != StatusOK {
		msg += fmt.Sprintf(" (sgp4 status %d)", e.Code)
	}
	msg += ": " + e.Cause
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ElementParseError) Unwrap() error {
	return e.Err
}
