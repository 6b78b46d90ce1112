package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("row 9 missing", nil)
	assert.Equal(t, CodeNotFound, err.Code)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "row 9 missing", UserMessage(err))

	err = NotFoundError("session expired", ErrSessionNotFound)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"not found", NotFoundError("gone", nil), codes.NotFound},
		{"session", fmt.Errorf("lookup: %w", NotFoundError("expired", ErrSessionNotFound)), codes.NotFound},
		{"validation", NewValidator().Field("x", "", Required).Error(), codes.InvalidArgument},
		{"missing column", MissingColumnError("상태"), codes.FailedPrecondition},
		{"extraction", NewAppError(CodeExtraction, "bad page", ErrExtraction), codes.Aborted},
		{"store", NewAppError(CodeStore, "down", ErrStore), codes.Unavailable},
		{"unknown", errors.New("boom"), codes.Internal},
		{"already a status", InvalidArgumentErrorf("row must be >= %d", 2), codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(ToStatus(tt.err)))
		})
	}
	assert.NoError(t, ToStatus(nil))
	assert.Equal(t, "gone", status.Convert(ToStatus(NotFoundError("gone", nil))).Message())
}

func TestValidateAndReturnError(t *testing.T) {
	v := NewValidator().Field("session_id", uuid.NewString(), UUID)
	assert.NoError(t, ValidateAndReturnError(v))

	v = NewValidator().Field("session_id", "not-a-uuid", UUID)
	err := ValidateAndReturnError(v)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "must be a valid UUID")
}
