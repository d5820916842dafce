package reminder

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrUnsupportedChannel  = errors.New("channel must be whatsapp or email")
	ErrNoEmail             = errors.New("patient has no email address")
)
