package scheduling

import "errors"

var (
	ErrInvalidDate  = errors.New("date must be YYYY-MM-DD")
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
)
