package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", NewNotFoundError("project 3", nil), ErrNotFound},
		{"wrapped validation", fmt.Errorf("handler: %w", NewValidationError("bad page", nil)), ErrInvalidInput},
		{"rate limit", NewRateLimitError("slow down", errors.New("429")), ErrRateLimit},
		{"sync in progress", fmt.Errorf("trigger: %w", NewSyncInProgressError("run-1")), ErrConflict},
		{"plain error", errors.New("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NewNotFoundError("missing", nil))))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsInvalidInput(NewValidationError("bad", nil)))
	assert.True(t, IsRateLimit(NewRateLimitError("limited", nil)))
	assert.True(t, IsConflict(NewSyncInProgressError("abc")))
	assert.False(t, IsConflict(errors.New("other")))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternalError("load snapshot", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INTERNAL: load snapshot (caused by: connection refused)", err.Error())
}
