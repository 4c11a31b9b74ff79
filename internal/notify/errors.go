package notify

import "codeberg.org/mutker/wellstatus/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig      = errors.ErrInvalidConfig
	ErrUnknownBackend     = errors.ErrorCode("notify_unknown_backend")
	ErrMissingCredentials = errors.ErrorCode("notify_missing_credentials")

	// Delivery Errors
	ErrSendFailed = errors.ErrorCode("notify_send_failed")
	ErrRejected   = errors.ErrorCode("notify_rejected")
	ErrTimeout    = errors.ErrTimeout
)
