package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrNameRequired    = errors.New("patient name is required")
	ErrInvalidBirth    = errors.New("birth date must be YYYY-MM-DD")
)
