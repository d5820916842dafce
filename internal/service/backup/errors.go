package backup

import "errors"

var (
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrInvalidDocument    = errors.New("invalid backup document")
	ErrArchiveDisabled    = errors.New("backup archive storage is not configured")
)
