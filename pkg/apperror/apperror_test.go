package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindConflict, KindOf(Conflict("already there")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindRuleViolation, KindOf(RuleViolation("no rule")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfUnwrapsCauses(t *testing.T) {
	inner := Conflict("status moved")
	wrapped := fmt.Errorf("applying transition: %w", inner)
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := Conflict("report %s is busy", "r1")
	assert.True(t, errors.Is(err, Conflict("")))
	assert.False(t, errors.Is(err, NotFound("")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := Wrap(KindNotFound, cause, "loading report")

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loading report")
	assert.Contains(t, err.Error(), "bad connection")
}

func TestMessageFormatting(t *testing.T) {
	err := Validation("invalid %s: %q", "hours", "abc")
	assert.Contains(t, err.Error(), `invalid hours: "abc"`)
	assert.Contains(t, err.Error(), "VALIDATION")
}
