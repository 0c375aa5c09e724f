package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("create conversation: %w", New(CodeNotFound, "no user"))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.True(t, errors.Is(err, New(CodeNotFound, "")))
	assert.False(t, errors.Is(err, New(CodeSelfContact, "")))

	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeDuplicateIdentity:   http.StatusBadRequest,
		CodeMissingInput:        http.StatusBadRequest,
		CodeParticipantMismatch: http.StatusBadRequest,
		CodeNotFound:            http.StatusNotFound,
		CodeChallengeNotFound:   http.StatusBadRequest,
		CodeOTPMismatch:         http.StatusUnauthorized,
		CodeSelfContact:         http.StatusForbidden,
		CodeNotificationFailure: http.StatusInternalServerError,
		CodeConsistency:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), code)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Internal("failed to save account", errors.New("connection refused"))
	assert.Equal(t, "failed to save account: connection refused", err.Error())
	assert.False(t, err.Code.Public())
}
