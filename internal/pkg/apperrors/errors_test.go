package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMapsStatus(t *testing.T) {
	cases := map[ErrorType]int{
		ErrInvalidRequest: http.StatusBadRequest,
		ErrAuthFailed:     http.StatusUnauthorized,
		ErrForbidden:      http.StatusForbidden,
		ErrNotFound:       http.StatusNotFound,
		ErrConflict:       http.StatusConflict,
		ErrUnavailable:    http.StatusServiceUnavailable,
		ErrUpstream:       http.StatusBadGateway,
		ErrInternal:       http.StatusInternalServerError,
	}
	for typ, status := range cases {
		assert.Equal(t, status, New(typ, "x", nil).HTTPStatus, string(typ))
	}
}

func TestWrapKeepsAppErrorThroughChain(t *testing.T) {
	base := NewNotFound("user not found")
	wrapped := fmt.Errorf("lookup: %w", base)

	assert.Same(t, base, Wrap(wrapped))
	assert.Nil(t, Wrap(nil))

	plain := errors.New("disk full")
	got := Wrap(plain)
	assert.Equal(t, ErrInternal, got.Type)
	assert.ErrorIs(t, got, plain)
	assert.Equal(t, "disk full: disk full", got.Error())
}
