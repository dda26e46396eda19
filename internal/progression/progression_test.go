package progression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/caves/internal/faults"
)

func TestTrackerStates(t *testing.T) {
	tr, err := New(3)
	require.NoError(t, err)

	assert.Equal(t, NoKeys, tr.State())
	assert.Equal(t, 3, tr.KeysRemaining())
	assert.False(t, tr.IsChamberUnlocked())

	state, err := tr.RecordTreasureKey()
	require.NoError(t, err)
	assert.Equal(t, PartialKeys, state)

	_, err = tr.RecordTreasureKey()
	require.NoError(t, err)
	assert.False(t, tr.IsChamberUnlocked())

	state, err = tr.RecordTreasureKey()
	require.NoError(t, err)
	assert.Equal(t, ChamberUnlocked, state)
	assert.True(t, tr.IsChamberUnlocked())
	assert.Zero(t, tr.KeysRemaining())
}

func TestTrackerMonotone(t *testing.T) {
	tr, err := New(5)
	require.NoError(t, err)

	prev := tr.Collected()
	for i := 0; i < 8; i++ {
		_, err := tr.RecordTreasureKey()
		if i >= 5 {
			assert.True(t, errors.Is(err, faults.ErrInconsistentProgression))
			assert.False(t, faults.Recoverable(err))
		}
		assert.GreaterOrEqual(t, tr.Collected(), prev)
		// Unlocked if and only if every key is in
		assert.Equal(t, tr.Collected() == tr.Total(), tr.IsChamberUnlocked())
		prev = tr.Collected()
	}
	assert.Equal(t, ChamberUnlocked, tr.State())
}

func TestTrackerRestore(t *testing.T) {
	tr, err := New(4)
	require.NoError(t, err)

	require.NoError(t, tr.Restore(2))
	assert.Equal(t, PartialKeys, tr.State())

	assert.True(t, errors.Is(tr.Restore(1), faults.ErrInconsistentProgression))
	assert.True(t, errors.Is(tr.Restore(5), faults.ErrInconsistentProgression))
	assert.Equal(t, 2, tr.Collected())

	require.NoError(t, tr.Restore(4))
	assert.True(t, tr.IsChamberUnlocked())
}

func TestNewRejectsZeroKeys(t *testing.T) {
	_, err := New(0)
	assert.True(t, errors.Is(err, faults.ErrInvalidConfig))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "chamber-unlocked", ChamberUnlocked.String())
	assert.Equal(t, "unknown", State(7).String())
}
