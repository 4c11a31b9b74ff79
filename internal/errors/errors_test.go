package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	errFactory := errors.New()

	err := errFactory.New(errors.ErrInitStore)
	assert.Equal(t, "Initial database connection failure on startup", err.Error())

	err = errFactory.WithMessage(errors.ErrInitStore, "database unreachable")
	assert.Equal(t, "database unreachable", err.Error())

	cause := stderrors.New("connection refused")
	err = errFactory.Wrap(errors.ErrInitStore, cause)
	assert.Equal(t, "Initial database connection failure on startup: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	unknown := errFactory.New(errors.ErrorCode("something_else"))
	assert.Equal(t, "something_else", unknown.Error())
}

func TestWithDataKeepsCode(t *testing.T) {
	err := errors.New().WithData(errors.ErrOperationFailed, struct{ Table string }{"pressure"})

	assert.Equal(t, errors.ErrOperationFailed, err.Code())
	assert.Equal(t, struct{ Table string }{"pressure"}, err.GetData())
	assert.Contains(t, err.Error(), "pressure")
}

func TestCodeOf(t *testing.T) {
	inner := errors.New().New(errors.ErrTimeout)
	wrapped := fmt.Errorf("outer: %w", inner)

	assert.Equal(t, errors.ErrTimeout, errors.CodeOf(wrapped))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(stderrors.New("plain")))
}

func TestHasCode(t *testing.T) {
	errFactory := errors.New()
	err := errFactory.Wrap(errors.ErrMainLoop, errFactory.New(errors.ErrTimeout))

	require.True(t, errors.HasCode(err, errors.ErrMainLoop))
	require.True(t, errors.HasCode(err, errors.ErrTimeout))
	require.False(t, errors.HasCode(err, errors.ErrInitApp))
	require.False(t, errors.HasCode(nil, errors.ErrInitApp))
}

func TestDerivedErrorsLeaveOriginalUntouched(t *testing.T) {
	cause := stderrors.New("disk full")
	base := errors.New().Wrap(errors.ErrOperationFailed, cause)

	withMsg := base.WithMessage("Error occurred while adding new data record")
	withData := base.WithData(struct{ Table string }{"data"})

	assert.Equal(t, "Operation failed: disk full", base.Error())
	assert.Equal(t, "Error occurred while adding new data record: disk full", withMsg.Error())
	assert.Equal(t, "Operation failed: {data}", withData.Error())
	assert.ErrorIs(t, withData, cause)
	assert.Nil(t, base.GetData())
}
