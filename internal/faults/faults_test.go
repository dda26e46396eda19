package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := Generationf(3, "only %d of %d rooms placed", 1, 3)

	assert.True(t, errors.Is(err, ErrGeneration))
	assert.False(t, errors.Is(err, ErrUnsolvableLevel))

	wrapped := fmt.Errorf("get level: %w", err)
	assert.True(t, errors.Is(wrapped, ErrGeneration))
	assert.Equal(t, KindGeneration, KindOf(wrapped))
}

func TestErrorMessageNamesLevel(t *testing.T) {
	err := Unsolvablef(2, "no tile for key")
	assert.Equal(t, "unsolvable_level: level 2: no tile for key", err.Error())

	err = Inconsistentf("collected 3 of 2")
	assert.Equal(t, "inconsistent_progression: collected 3 of 2", err.Error())
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(InvalidKeyf(0, "wrong key")))
	assert.True(t, Recoverable(AlreadyUnlockedf(0, "open")))
	assert.True(t, Recoverable(errors.New("plain")))
	assert.False(t, Recoverable(Inconsistentf("bug")))
}

func TestWrapStorageUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapStorage("save snapshot", cause)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Empty(t, KindOf(cause))
}

func TestExhaustedKeepsKind(t *testing.T) {
	last := Unsolvablef(4, "no key tile")
	err := Exhausted(4, 10, last)

	assert.True(t, errors.Is(err, ErrUnsolvableLevel))
	assert.Equal(t, 4, LevelOf(err))
	assert.Contains(t, err.Error(), "gave up after 10 attempts")
	assert.Equal(t, NoLevel, LevelOf(errors.New("plain")))
}
