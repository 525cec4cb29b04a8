package apperrors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func respond(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Respond(c, err)
	return w
}

func TestRespondStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{ErrAuth, http.StatusUnauthorized},
		{ErrToken, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrPaymentRequired, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{errors.New("database on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := respond(tc.err)
		assert.Equalf(t, tc.code, w.Code, "error %v", tc.err)
	}
}

func TestRespondRedactsUnknownErrors(t *testing.T) {
	w := respond(errors.New("pq: connection refused at 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", gjson.Get(w.Body.String(), "message").String())
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestRespondValidationError(t *testing.T) {
	verr := NewValidation().
		Add("title", "title is required").
		Add("weight_kg", "weight must be a positive number")

	w := respond(verr)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "errors.#").Int())
	assert.Equal(t, "title", gjson.Get(body, "errors.0.field").String())
}

func TestWrapKeepsSentinelAndMessage(t *testing.T) {
	err := Wrap(ErrConflict, "Cargo is already assigned or delivered")

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Cargo is already assigned or delivered", err.Error())

	w := respond(err)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Cargo is already assigned or delivered",
		gjson.Get(w.Body.String(), "message").String())
}
