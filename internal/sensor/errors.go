package sensor

import "codeberg.org/mutker/wellstatus/internal/errors"

const (
	// Transport Errors
	ErrTransport    = errors.ErrorCode("sensor_transport_failed")
	ErrNotConnected = errors.ErrorCode("sensor_not_connected")
	ErrReadTimeout  = errors.ErrorCode("sensor_read_timeout")
	ErrEmptyFrame   = errors.ErrorCode("sensor_empty_frame")

	// Port Errors
	ErrInvalidPortOptions = errors.ErrorCode("sensor_invalid_port_options")
	ErrOpenPort           = errors.ErrInitPort

	// Decode Errors
	ErrDecode = errors.ErrorCode("sensor_decode_failed")
)
