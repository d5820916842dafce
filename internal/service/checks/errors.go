package checks

import "errors"

var (
	ErrNotCurrent   = errors.New("check is not the open prompt")
	ErrUnknownCheck = errors.New("unknown check")
)
