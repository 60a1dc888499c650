package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorAggregatesFields(t *testing.T) {
	t.Parallel()

	err := NewValidationError("pipeline", "must not be empty", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "pipeline", validationErr.Field)
	require.Contains(t, validationErr.Message, "must not be empty")
}

func TestUnknownStageErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewUnknownStageError("mon-1", "carrier-pigeon")
	require.Contains(t, err.Error(), "mon-1")
	require.Contains(t, err.Error(), "carrier-pigeon")
}

func TestBadStageConfigErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("min/max required")
	err := NewBadStageConfigError("mon-1", 2, "threshold", underlying)

	var cfgErr *BadStageConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, 2, cfgErr.StageIndex)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestBadPipelineErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewBadPipelineError("mon-1", "no network stage present")
	require.Contains(t, err.Error(), "no network stage present")
}

func TestPipelineTimeoutErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewPipelineTimeoutError("mon-1")
	require.Contains(t, err.Error(), "pipeline_timeout")
}

func TestUnresolvedValueErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewUnresolvedValueError("missing_name")
	require.Equal(t, "unresolved $missing_name", err.Error())
}

func TestNotFoundErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("monitor", "mon-1")

	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	require.Equal(t, "monitor", notFoundErr.Kind)
	require.Equal(t, "mon-1", notFoundErr.ID)
	require.Contains(t, err.Error(), "mon-1")
}

func TestStorageErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("connection refused")
	err := NewStorageError("append_result", underlying)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	require.True(t, stdErrors.Is(err, underlying))
}
