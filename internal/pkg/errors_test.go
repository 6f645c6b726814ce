package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validationf("bad input"), http.StatusBadRequest},
		{Authenticationf("who are you"), http.StatusUnauthorized},
		{Authorizationf("not yours"), http.StatusForbidden},
		{NotFoundf("gone"), http.StatusNotFound},
		{Conflictf("taken"), http.StatusConflict},
		{Internalf("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("context: %w", NotFoundf("post not found"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindValidation))
}

func TestIsKind_NilAndPlain(t *testing.T) {
	assert.False(t, IsKind(nil, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}
