package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("missing field"), KindValidation},
		{"authentication", Authentication("no token"), KindAuthentication},
		{"not found", NotFound("Message not found", ErrNotFound), KindNotFound},
		{"wrapped", fmt.Errorf("handler: %w", Conflict("exists", ErrDuplicate)), KindConflict},
		{"plain error", errors.New("boom"), KindStore},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(ErrNotFound))
	assert.True(t, IsMissing(fmt.Errorf("lookup: %w", ErrInvalidID)))
	assert.True(t, IsMissing(NotFound("Message not found", ErrInvalidID)))
	assert.False(t, IsMissing(errors.New("connection reset")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "User not found", MessageOf(NotFound("User not found", nil), "fallback"))
	assert.Equal(t, "fallback", MessageOf(errors.New("raw"), "fallback"))
	assert.Equal(t, "Failed: record not found", Store("Failed", ErrNotFound).Error())
}

func TestIsStore(t *testing.T) {
	assert.True(t, IsStore(Store("db down", errors.New("x"))))
	assert.True(t, IsStore(fmt.Errorf("wrap: %w", Store("db down", nil))))
	assert.False(t, IsStore(errors.New("plain")))
	assert.False(t, IsStore(Authentication("Not authorized")))
	assert.False(t, IsStore(nil))
}
