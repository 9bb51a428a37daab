package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("credit")
	assert.Equal(t, "[LED_001] credit not found", err.Error())

	wrapped := ErrStorage(fmt.Errorf("connection reset"))
	assert.Contains(t, wrapped.Error(), "SYS_002")
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := InternalError(inner)
	assert.True(t, errors.Is(err, inner))
}

func TestKinds(t *testing.T) {
	cases := []struct {
		err    *AppError
		kind   Kind
		status int
	}{
		{NotFound("listing"), KindNotFound, http.StatusNotFound},
		{Unauthorized("not the seller"), KindUnauthorized, http.StatusForbidden},
		{InvalidState("listing is cancelled"), KindInvalidState, http.StatusUnprocessableEntity},
		{Conflict("duplicate verifier"), KindConflict, http.StatusConflict},
		{Validation("amount must be positive"), KindValidation, http.StatusBadRequest},
		{ErrDuplicateVote(), KindConflict, http.StatusConflict},
		{ErrCertificateExists(), KindConflict, http.StatusConflict},
		{ErrCreditRetired("C1"), KindInvalidState, http.StatusUnprocessableEntity},
		{ErrInsufficientFunds(), KindValidation, http.StatusPaymentRequired},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.HTTPStatus, tc.err.Code)
	}
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(ErrDuplicateVote(), KindConflict))
	assert.False(t, IsKind(ErrDuplicateVote(), KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindInternal))
}
