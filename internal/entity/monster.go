package entity

import (
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/caves/internal/gamedata"
)

// Monster holds the combat state of a hostile creature. Combat itself is
// resolved elsewhere.
type Monster struct {
	Type    string      `json:"type"` // gamedata id (e.g., "bat")
	HP      int         `json:"hp"`
	MaxHP   int         `json:"maxHp"`
	Attack  int         `json:"attack"`
	Defense int         `json:"defense"`
	Color   tcell.Color `json:"-"`
}

// NewMonster creates a monster entity from a data-driven definition with hit
// points scaled to the level depth.
func NewMonster(def *gamedata.MonsterDef, depth int) *Entity {
	hp := def.HPAt(depth)
	return &Entity{
		Kind:   KindMonster,
		Name:   def.Name,
		DefID:  def.ID,
		Symbol: def.GlyphRune(),
		Monster: &Monster{
			Type:    def.ID,
			HP:      hp,
			MaxHP:   hp,
			Attack:  def.Attack,
			Defense: def.Defense,
			Color:   def.TCellColor(),
		},
	}
}

// IsAlive returns true if the monster has hit points left.
func (m *Monster) IsAlive() bool {
	return m.HP > 0
}

// TakeDamage reduces hit points, never below zero.
func (m *Monster) TakeDamage(amount int) {
	if amount < 0 {
		return
	}
	m.HP -= amount
	if m.HP < 0 {
		m.HP = 0
	}
}
