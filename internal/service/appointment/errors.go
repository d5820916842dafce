package appointment

import "errors"

var (
	ErrNotFound            = errors.New("appointment not found")
	ErrAlreadyCompleted    = errors.New("appointment is already completed")
	ErrAlreadyCanceled     = errors.New("appointment is already canceled")
	ErrDayNotSelectable    = errors.New("day is not available for booking")
	ErrNoStagedReschedule  = errors.New("no pending reschedule for appointment")
	ErrInvalidDateTime     = errors.New("date must be YYYY-MM-DD and time HH:MM")
	ErrUnknownConsultation = errors.New("consultation type not found")
)
