package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesAppErrorType(t *testing.T) {
	base := NewNotFoundError("node", "n1")

	wrapped := Wrap(base, "fetch node")

	require.Error(t, wrapped)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "fetch node: node 'n1' not found", GetAppError(wrapped).Message)
	// base is left untouched
	assert.Equal(t, "node 'n1' not found", base.Message)
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	cause := fmt.Errorf("boom")

	wrapped := Wrapf(cause, "push %s", "ds1")

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeInternal, appErr.Type)
	assert.ErrorIs(t, wrapped, cause)
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "anything"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"not found", NewNotFoundError("dataset", "d"), http.StatusNotFound},
		{"unavailable", NewUnavailableError("remote"), http.StatusServiceUnavailable},
		{"external", NewExternalError("supabase", fmt.Errorf("x")), http.StatusBadGateway},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := NewConflictError("partial").WithCode(CodePartialSync)

	assert.True(t, HasCode(fmt.Errorf("outer: %w", err), CodePartialSync))
	assert.False(t, HasCode(err, CodeNoDataset))
}
