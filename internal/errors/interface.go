package errors

// ErrorCode identifies a failure independently of its message. Packages
// declare their own codes in errors.go; shared ones live in codes.go.
type ErrorCode string

// Error is a coded error. Its message defaults to the catalogue text of its
// code and may carry the underlying cause or structured detail.
type Error interface {
	error
	Code() ErrorCode
	// WithMessage returns a copy with msg replacing the catalogue text.
	WithMessage(msg string) Error
	// WithData returns a copy carrying data, which is appended to the
	// message when printed.
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds coded errors. Callers keep one per function:
//
//	errFactory := errors.New()
//	return errFactory.Wrap(ErrStoreOperation, err)
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
