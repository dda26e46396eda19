package entity

import (
	"github.com/google/uuid"

	"github.com/samdwyer/caves/internal/gamedata"
)

// NewItem creates an item or potion entity from its definition. Strength only
// applies to potions.
func NewItem(def *gamedata.ItemDef, strength int) *Entity {
	e := &Entity{
		Kind:   KindItem,
		Name:   def.Name,
		DefID:  def.ID,
		Symbol: def.GlyphRune(),
	}
	if def.IsPotion() {
		e.Kind = KindPotion
		e.Strength = strength
	}
	return e
}

// NewKey creates an ordinary key that opens the given door.
func NewKey(door uuid.UUID) *Entity {
	return &Entity{
		Kind:    KindKey,
		Name:    "Key",
		Unlocks: door,
	}
}

// NewTreasureKey creates one of the keys that open the treasure chamber.
func NewTreasureKey() *Entity {
	return &Entity{
		Kind: KindTreasureKey,
		Name: "Treasure Key",
	}
}
