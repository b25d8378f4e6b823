package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad input"), 400},
		{UnauthorizedError("wrong password"), 401},
		{NotFoundError("missing"), 404},
		{InternalError("boom", nil), 500},
		{ExternalError("sensor down", nil), 502},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus(), "type %s", tt.err.Type)
	}
}

func TestErrorString(t *testing.T) {
	err := ValidationError("density must be positive")
	assert.Equal(t, "validation: density must be positive", err.Error())

	wrapped := InternalError("save failed", fmt.Errorf("disk full"))
	assert.Equal(t, "internal: save failed: disk full", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := InternalError("save failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestAsStructuredError_PassesThrough(t *testing.T) {
	original := ValidationError("bad")
	wrapped := fmt.Errorf("handler: %w", original)

	got := AsStructuredError(wrapped)
	assert.Same(t, original, got)
}

func TestAsStructuredError_WrapsPlainErrors(t *testing.T) {
	got := AsStructuredError(errors.New("something broke"))
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
	assert.Equal(t, 500, got.HTTPStatus())
}

func TestAsStructuredError_Nil(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))
}

func TestWithField(t *testing.T) {
	err := ValidationError("bad").WithField("field", "density")
	assert.Equal(t, "density", err.Context["field"])

	resp := err.ToResponse()
	assert.Equal(t, "bad", resp.Error)
	assert.Equal(t, "density", resp.Context["field"])
}
