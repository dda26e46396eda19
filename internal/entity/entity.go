// Package entity provides the things placed in a level: collectibles, keys and monsters.
package entity

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/world"
)

// Kind tags what an entity is.
type Kind int

const (
	KindItem Kind = iota
	KindPotion
	KindKey
	KindTreasureKey
	KindMonster
)

var kindNames = [...]string{
	KindItem:        "item",
	KindPotion:      "potion",
	KindKey:         "key",
	KindTreasureKey: "treasure-key",
	KindMonster:     "monster",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown entity kind %q", text)
}

// Symbol returns the default display symbol for a kind.
func (k Kind) Symbol() rune {
	switch k {
	case KindItem:
		return '*'
	case KindPotion:
		return '!'
	case KindKey:
		return 'k'
	case KindTreasureKey:
		return '$'
	case KindMonster:
		return 'm'
	default:
		return '?'
	}
}

// Entity is anything placed on a level tile.
type Entity struct {
	ID     uuid.UUID `json:"id"`
	Kind   Kind      `json:"kind"`
	Pos    world.Pos `json:"pos"`
	Name   string    `json:"name"`
	DefID  string    `json:"def,omitempty"` // gamedata id for items, potions and monsters
	Symbol rune      `json:"-"`

	// Unlocks is the door a key opens.
	Unlocks uuid.UUID `json:"unlocks"`
	// Strength is a potion's potency.
	Strength int `json:"strength,omitempty"`
	// Monster holds combat stats for monsters.
	Monster *Monster `json:"monster,omitempty"`
}

// Position returns the entity's x, y coordinates.
func (e *Entity) Position() (int, int) {
	return e.Pos.X, e.Pos.Y
}

// Glyph returns the display symbol, falling back to the kind's default.
func (e *Entity) Glyph() rune {
	if e.Symbol != 0 {
		return e.Symbol
	}
	return e.Kind.Symbol()
}

// IsKey reports whether the entity is an ordinary key or a treasure key.
func (e *Entity) IsKey() bool {
	return e.Kind == KindKey || e.Kind == KindTreasureKey
}

// IsCollectible reports whether the entity can be picked up.
func (e *Entity) IsCollectible() bool {
	return e.Kind != KindMonster
}

// Clone returns a copy that shares no mutable state with e.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Monster != nil {
		m := *e.Monster
		c.Monster = &m
	}
	return &c
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s %q at %s", e.Kind, e.Name, e.Pos)
}

// NewID derives a stable entity id from the seed, level, kind and ordinal.
func NewID(seed rng.Seed, level int, kind Kind, n int) uuid.UUID {
	name := fmt.Sprintf("%d/level/%d/%s/%d", seed, level, kind, n)
	return uuid.NewSHA1(world.IDNamespace, []byte(name))
}
