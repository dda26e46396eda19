package gamedata

import (
	"errors"
	"io/fs"

	"github.com/samdwyer/caves/internal/rng"
)

// MonsterRegistry holds loaded monster definitions and provides spawning utilities.
type MonsterRegistry struct {
	monsters []MonsterDef
}

// NewMonsterRegistry creates a registry from loaded monster definitions.
func NewMonsterRegistry(monsters []MonsterDef) *MonsterRegistry {
	return &MonsterRegistry{monsters: monsters}
}

// LoadMonsterRegistry loads and creates a registry from the embedded monsters.json.
func LoadMonsterRegistry() (*MonsterRegistry, error) {
	return LoadMonsterRegistryFrom(dataFS)
}

// LoadMonsterRegistryFrom loads and creates a registry from monsters.json in fsys.
func LoadMonsterRegistryFrom(fsys fs.FS) (*MonsterRegistry, error) {
	monsters, err := LoadMonstersFrom(fsys)
	if err != nil {
		return nil, err
	}
	if len(monsters) == 0 {
		return nil, errors.New("no monsters loaded from monsters.json")
	}
	return NewMonsterRegistry(monsters), nil
}

// MustLoadMonsterRegistry loads a registry, panicking on error.
func MustLoadMonsterRegistry() *MonsterRegistry {
	registry, err := LoadMonsterRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// SpawnRandom selects a monster that may appear at depth using weighted probability.
// Monsters with higher spawnWeight are more likely to be selected. It returns nil
// if no monster has a minDepth at or above depth.
func (r *MonsterRegistry) SpawnRandom(s *rng.Stream, depth int) *MonsterDef {
	weights := make([]int, len(r.monsters))
	for i := range r.monsters {
		if r.monsters[i].MinDepth <= depth {
			weights[i] = r.monsters[i].SpawnWeight
		}
	}

	i := rng.WeightedIndex(s, weights)
	if i < 0 {
		return nil
	}
	return &r.monsters[i]
}

// GetByID returns the monster definition with the given ID, or nil if not found.
func (r *MonsterRegistry) GetByID(id string) *MonsterDef {
	for i := range r.monsters {
		if r.monsters[i].ID == id {
			return &r.monsters[i]
		}
	}
	return nil
}

// All returns all monster definitions.
func (r *MonsterRegistry) All() []MonsterDef {
	return r.monsters
}

// Count returns the number of monster types in the registry.
func (r *MonsterRegistry) Count() int {
	return len(r.monsters)
}

// =============================================================================
// ItemRegistry
// =============================================================================

// ItemRegistry holds loaded item and potion definitions.
type ItemRegistry struct {
	items   map[string]*ItemDef
	all     []ItemDef
	regular []int // indices of plain items
	potions []int // indices of potions
}

// NewItemRegistry creates a registry from loaded item definitions.
func NewItemRegistry(items []ItemDef) *ItemRegistry {
	registry := &ItemRegistry{
		items: make(map[string]*ItemDef),
		all:   items,
	}
	for i := range items {
		registry.items[items[i].ID] = &items[i]
		if items[i].IsPotion() {
			registry.potions = append(registry.potions, i)
		} else {
			registry.regular = append(registry.regular, i)
		}
	}
	return registry
}

// LoadItemRegistry loads and creates a registry from the embedded items.json.
func LoadItemRegistry() (*ItemRegistry, error) {
	return LoadItemRegistryFrom(dataFS)
}

// LoadItemRegistryFrom loads and creates a registry from items.json in fsys.
func LoadItemRegistryFrom(fsys fs.FS) (*ItemRegistry, error) {
	items, err := LoadItemsFrom(fsys)
	if err != nil {
		return nil, err
	}
	registry := NewItemRegistry(items)
	if len(registry.regular) == 0 || len(registry.potions) == 0 {
		return nil, errors.New("items.json needs at least one item and one potion")
	}
	return registry, nil
}

// MustLoadItemRegistry loads a registry, panicking on error.
func MustLoadItemRegistry() *ItemRegistry {
	registry, err := LoadItemRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// RandomItem selects a plain item by weight, or nil if there are none.
func (r *ItemRegistry) RandomItem(s *rng.Stream) *ItemDef {
	return r.pick(s, r.regular)
}

// RandomPotion selects a potion by weight, or nil if there are none.
func (r *ItemRegistry) RandomPotion(s *rng.Stream) *ItemDef {
	return r.pick(s, r.potions)
}

func (r *ItemRegistry) pick(s *rng.Stream, indices []int) *ItemDef {
	weights := make([]int, len(indices))
	for i, idx := range indices {
		weights[i] = r.all[idx].SpawnWeight
	}
	i := rng.WeightedIndex(s, weights)
	if i < 0 {
		return nil
	}
	return &r.all[indices[i]]
}

// GetByID returns the item definition with the given ID, or nil if not found.
func (r *ItemRegistry) GetByID(id string) *ItemDef {
	return r.items[id]
}

// All returns all item definitions.
func (r *ItemRegistry) All() []ItemDef {
	return r.all
}

// Count returns the number of item types in the registry.
func (r *ItemRegistry) Count() int {
	return len(r.all)
}
