package store

import "codeberg.org/mutker/wellstatus/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig  = errors.ErrInvalidConfig
	ErrInvalidDriver  = errors.ErrorCode("store_invalid_driver")
	ErrInvalidDBPath  = errors.ErrorCode("store_invalid_db_path")
	ErrMissingAddress = errors.ErrorCode("store_missing_address")

	// Connection Errors
	ErrConnect   = errors.ErrInitStore
	ErrReconnect = errors.ErrorCode("store_reconnect_failed")
	ErrProbe     = errors.ErrorCode("store_liveness_probe_failed")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("store_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("store_schema_validation_failed")

	// Operation Errors
	ErrStoreOperation    = errors.ErrorCode("store_operation_failed")
	ErrTransactionFailed = errors.ErrorCode("store_transaction_failed")
	ErrUnknownTable      = errors.ErrorCode("store_unknown_table")
	ErrStorageClose      = errors.ErrShutdownFailed
)
