package services

import "errors"

// Sentinel errors returned by the service layer. Services wrap these with
// fmt.Errorf("%w: ...") to add detail; controllers classify with errors.Is
// and translate to HTTP codes. Anything that does not match one of these
// is an infrastructure failure and maps to 500.
var (
	ErrValidation    = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not allowed")
	ErrConflict      = errors.New("conflict")
)
