package service

import "errors"

// Sentinel errors returned by the services. Callers match with errors.Is and
// map them to transport-level responses; details are attached with
// fmt.Errorf("%w: ...").
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("resource conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotSuspended       = errors.New("entity is not suspended")
	ErrNotEligible        = errors.New("entity is not eligible for permanent deletion")
	ErrNotConfirmed       = errors.New("permanent deletion requires explicit confirmation")
	ErrProtectedRole      = errors.New("role is protected")
)
