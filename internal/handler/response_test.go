package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", apperrors.Validation("date and time slot are required"), http.StatusBadRequest, `{"status":"error","message":"date and time slot are required"}`},
		{"conflict", apperrors.Conflict("slot taken", nil), http.StatusConflict, `{"status":"error","message":"slot taken"}`},
		{"forbidden", apperrors.Forbidden("admin access required"), http.StatusForbidden, `{"status":"error","message":"admin access required"}`},
		{"not found", apperrors.NotFound("doctor", nil), http.StatusNotFound, `{"status":"error","message":"doctor not found"}`},
		{"internal hides cause", errors.New("pq: connection reset"), http.StatusInternalServerError, `{"status":"error","message":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			RespondError(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
			assert.True(t, c.IsAborted())
			assert.Equal(t, tt.code >= 500, len(c.Errors) > 0)
		})
	}
}

func TestBindErrorFallsBackForMalformedJSON(t *testing.T) {
	err := BindError(errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	assert.Equal(t, "invalid request body", apperrors.PublicMessage(err))
}
