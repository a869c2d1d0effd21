package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("formats with cause", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		err := NewStorageError("upsert day row", cause)

		assert.Equal(t, "[STORAGE] upsert day row: disk full", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("formats without cause", func(t *testing.T) {
		err := NewNotFoundError("input directory")
		assert.Equal(t, "[NOT_FOUND] input directory not found", err.Error())
	})

	t.Run("context is attached", func(t *testing.T) {
		err := NewParsingError("bad row", nil).WithContext("line", 12)
		assert.Equal(t, 12, err.Context["line"])
	})
}

func TestSchemaResolutionError(t *testing.T) {
	err := NewSchemaResolutionError([]string{"bid", "ask_size"}, []string{"SYM_ROOT", "TIME_M"})
	wrapped := fmt.Errorf("resolve columns: %w", err)

	var schemaErr *SchemaResolutionError
	require.True(t, As(wrapped, &schemaErr))
	assert.Equal(t, []string{"bid", "ask_size"}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "bid, ask_size")
	assert.Contains(t, err.Error(), "SYM_ROOT")
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("load: %w", NewConfigError("bad yaml", nil))
	assert.True(t, IsType(err, ErrTypeConfig))
	assert.False(t, IsType(err, ErrTypeStorage))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeConfig))
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NewNotFoundError("panel row"), http.StatusNotFound, "NOT_FOUND"},
		{"storage", NewStorageError("query", fmt.Errorf("locked")), http.StatusInternalServerError, "STORAGE_ERROR"},
		{"api error passes through", NotFoundError("/api/v1/nope"), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := ToAPIError(tt.err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.code, apiErr.ErrorCode)
		})
	}
}
