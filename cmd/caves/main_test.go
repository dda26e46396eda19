package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/caves/internal/config"
	"github.com/samdwyer/caves/internal/game"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/storage"
)

func TestResolveSessionBeforeWorld(t *testing.T) {
	cfg := config.Default()
	store, err := storage.NewFileStore(t.TempDir(), false)
	require.NoError(t, err)
	defer store.Close()

	seed, snap, err := resolveSession(cfg, flags{seed: "42"}, store)
	require.NoError(t, err)
	assert.Equal(t, rng.Seed(42), seed)
	assert.Nil(t, snap)

	saved := &game.Snapshot{Version: game.SnapshotVersion, Seed: 777, Config: cfg.Game.Fingerprint()}
	require.NoError(t, store.Save("slot", saved))

	seed, snap, err = resolveSession(cfg, flags{seed: "42", load: "slot"}, store)
	require.NoError(t, err)
	assert.Equal(t, rng.Seed(777), seed, "the snapshot seed wins over -seed")
	require.NotNil(t, snap)
	assert.Equal(t, saved.Seed, snap.Seed)
}
