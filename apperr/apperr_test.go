package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("user not found")))
	assert.Equal(t, KindConflict, KindOf(Conflict("username already taken")))
	assert.Equal(t, KindInvalidTransition, KindOf(InvalidTransition("user is already premium")))
	assert.Equal(t, KindValidationFailed, KindOf(ValidationFailed("bio cannot exceed %d characters", 255)))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("invalid credentials")))
	assert.Equal(t, KindInternal, KindOf(Internal(errors.New("boom"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading account: %w", NotFound("user not found"))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)
	assert.EqualError(t, err, "internal error")
	assert.ErrorIs(t, err, cause)
}

func TestMessageFormatting(t *testing.T) {
	assert.EqualError(t, ValidationFailed("bio cannot exceed %d characters", 255), "bio cannot exceed 255 characters")
}
