package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("date is required"), http.StatusBadRequest},
		{"bad request", BadRequest("bad", nil), http.StatusBadRequest},
		{"conflict", Conflict("slot taken", nil), http.StatusConflict},
		{"not found", NotFound("appointment", nil), http.StatusNotFound},
		{"forbidden", Forbidden("not your appointment"), http.StatusForbidden},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"internal", Internal(stderrors.New("db down")), http.StatusInternalServerError},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("book: %w", Conflict("slot taken", nil)), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("cancel: %w", Forbidden("not your appointment"))

	assert.ErrorIs(t, err, KindForbidden)
	assert.NotErrorIs(t, err, KindConflict)
	assert.NotErrorIs(t, err, KindNotFound)
}

func TestPublicMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(Internal(stderrors.New("password=secret"))))
	assert.Equal(t, "internal server error", PublicMessage(stderrors.New("raw")))
	assert.Equal(t, "slot taken", PublicMessage(Conflict("slot taken", nil)))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("unique violation")
	err := Conflict("slot taken", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "slot taken: unique violation", err.Error())
}
