package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrigo/irrigo/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("get quote: %w", shared.ErrNotFound), http.StatusNotFound},
		{errors.Join(shared.ErrDuplicate, errors.New("pg")), http.StatusConflict},
		{shared.ErrInUse, http.StatusConflict},
		{fmt.Errorf("%w: bad status", shared.ErrConflict), http.StatusConflict},
		{ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestRespondErrorFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("create: %w", shared.FieldErrors{"name": "required"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "required", body.Errors["name"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	var target struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(req, &target)
	assert.ErrorIs(t, err, ErrBadRequest)
}
