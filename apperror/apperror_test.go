package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(Conflict, "already cancelled"))

	assert.Equal(t, Conflict, KindOf(err))
	assert.True(t, Is(err, Conflict))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, Internal))
}

func TestMessageHidesInternalCause(t *testing.T) {
	wrapped := Wrap(errors.New("connection refused"), "Internal server error")

	assert.Equal(t, "Internal server error", Message(wrapped))
	assert.Equal(t, "Internal server error", Message(errors.New("raw driver error")))
	assert.Equal(t, "Order not found", Message(New(NotFound, "Order not found")))
	assert.ErrorContains(t, wrapped, "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated: http.StatusUnauthorized,
		Unauthorized:    http.StatusForbidden,
		NotFound:        http.StatusNotFound,
		InvalidInput:    http.StatusBadRequest,
		Conflict:        http.StatusConflict,
		Internal:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}
