package monitor

import "codeberg.org/mutker/wellstatus/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("monitor_invalid_config")
	ErrNoReader      = errors.ErrorCode("monitor_missing_reader")
	ErrNoRepository  = errors.ErrorCode("monitor_missing_repository")
)
