package gamedata

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/caves/internal/rng"
)

func TestLoadMonsters(t *testing.T) {
	monsters, err := LoadMonsters()
	if err != nil {
		t.Fatalf("Failed to load monsters: %v", err)
	}

	if len(monsters) == 0 {
		t.Fatal("Expected monsters, got none")
	}

	// At least one monster must be able to appear on the first level
	shallow := false
	for _, m := range monsters {
		if m.MinDepth == 0 && m.SpawnWeight > 0 {
			shallow = true
		}
		if m.HP <= 0 {
			t.Errorf("Monster %q has no hit points", m.ID)
		}
	}
	if !shallow {
		t.Error("No monster can spawn at depth 0")
	}
}

func TestMonsterRegistry(t *testing.T) {
	registry, err := LoadMonsterRegistry()
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}

	bat := registry.GetByID("bat")
	if bat == nil {
		t.Fatal("Bat not found by ID")
	}
	if bat.Name != "Cave Bat" {
		t.Errorf("Expected name 'Cave Bat', got %q", bat.Name)
	}

	// Test weighted spawning is deterministic with same stream key
	s1 := rng.New(12345).Stream(0, rng.PurposeMonsters, 0)
	s2 := rng.New(12345).Stream(0, rng.PurposeMonsters, 0)

	for i := 0; i < 10; i++ {
		m1 := registry.SpawnRandom(s1, 3)
		m2 := registry.SpawnRandom(s2, 3)
		if m1.ID != m2.ID {
			t.Errorf("Spawn %d mismatch: %s != %s", i, m1.ID, m2.ID)
		}
		if m1.MinDepth > 3 {
			t.Errorf("Spawn %d: %s is too deep for level 3", i, m1.ID)
		}
	}
}

func TestSpawnRandomRespectsDepth(t *testing.T) {
	registry := NewMonsterRegistry([]MonsterDef{
		{ID: "deep", SpawnWeight: 10, MinDepth: 5},
	})
	s := rng.New(1).Stream(0, rng.PurposeMonsters, 0)

	assert.Nil(t, registry.SpawnRandom(s, 4))
	require.NotNil(t, registry.SpawnRandom(s, 5))
}

func TestMonsterHPScalesWithDepth(t *testing.T) {
	def := MonsterDef{HP: 10, HPPerLevel: 3}

	assert.Equal(t, 10, def.HPAt(0))
	assert.Equal(t, 25, def.HPAt(5))
	assert.Equal(t, 10, def.HPAt(-2))
}

func TestItemRegistry(t *testing.T) {
	registry, err := LoadItemRegistry()
	require.NoError(t, err)

	s := rng.New(9).Stream(0, rng.PurposePlacement, 0)
	for i := 0; i < 20; i++ {
		item := registry.RandomItem(s)
		require.NotNil(t, item)
		assert.False(t, item.IsPotion())

		potion := registry.RandomPotion(s)
		require.NotNil(t, potion)
		assert.True(t, potion.IsPotion())
	}
}

func TestLoadFromDirectory(t *testing.T) {
	fsys := fstest.MapFS{
		"monsters.json": {Data: []byte(`{"monsters":[{"id":"mole","name":"Mole","glyph":"m","hp":3,"spawnWeight":1}]}`)},
		"items.json":    {Data: []byte(`{"items":[]}`)},
	}

	registry, err := LoadMonsterRegistryFrom(fsys)
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Count())
	assert.Equal(t, 'm', registry.GetByID("mole").GlyphRune())

	_, err = LoadItemRegistryFrom(fsys)
	assert.Error(t, err)

	_, err = LoadMonsterRegistryFrom(fstest.MapFS{})
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"#FF0000", true},
		{"FF0000", true},
		{"#00FF00", true},
		{"#0000FF", true},
		{"#FFFFFF", true},
		{"#000000", true},
		{"invalid", false},
		{"#FFF", false}, // Too short
	}

	for _, tt := range tests {
		_, err := ParseHexColor(tt.input)
		if tt.valid && err != nil {
			t.Errorf("ParseHexColor(%q) should be valid, got error: %v", tt.input, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ParseHexColor(%q) should be invalid, got no error", tt.input)
		}
	}
}

func TestMonsterDefMethods(t *testing.T) {
	def := MonsterDef{
		ID:          "test",
		Name:        "Test Monster",
		Glyph:       "T",
		Color:       "#FF0000",
		HP:          10,
		Attack:      5,
		Defense:     2,
		SpawnWeight: 50,
	}

	if def.GlyphRune() != 'T' {
		t.Errorf("Expected glyph 'T', got %c", def.GlyphRune())
	}

	color := def.TCellColor()
	if color == 0 {
		t.Error("TCellColor returned zero color")
	}

	empty := MonsterDef{}
	assert.Equal(t, '?', empty.GlyphRune())
}

func TestPalette(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, MustParseHexColor("#FFD700"), p.Color('&', 0))
	assert.Equal(t, MustParseHexColor("#123456"), p.Color('z', MustParseHexColor("#123456")))
}
