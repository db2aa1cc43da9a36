package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound("missing")))
	assert.Equal(t, http.StatusForbidden, StatusOf(AccessDenied("no")))
	assert.Equal(t, http.StatusBadRequest, StatusOf(BadRequest("bad")))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(Unauthorized("who")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func TestStatusOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("joining deck: %w", BadRequest("You already review this deck"))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.False(t, IsStatus(err, http.StatusNotFound))
}
