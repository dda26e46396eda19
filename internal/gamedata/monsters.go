package gamedata

import (
	"io/fs"

	"github.com/gdamore/tcell/v2"
)

// MonsterDef defines a monster type loaded from JSON.
type MonsterDef struct {
	ID          string `json:"id"`          // Unique identifier (e.g., "bat")
	Name        string `json:"name"`        // Display name (e.g., "Cave Bat")
	Glyph       string `json:"glyph"`       // Single character for rendering (e.g., "b")
	Color       string `json:"color"`       // Hex color code (e.g., "#00FF00")
	HP          int    `json:"hp"`          // Hit points at depth 0
	HPPerLevel  int    `json:"hpPerLevel"`  // Extra hit points per level of depth
	Attack      int    `json:"attack"`      // Base attack power
	Defense     int    `json:"defense"`     // Base defense value
	SpawnWeight int    `json:"spawnWeight"` // Relative spawn frequency (higher = more common)
	MinDepth    int    `json:"minDepth"`    // Shallowest level the monster appears on
}

// GlyphRune returns the glyph as a rune for rendering.
func (m *MonsterDef) GlyphRune() rune {
	return glyphRune(m.Glyph)
}

// TCellColor returns the color as a tcell.Color.
func (m *MonsterDef) TCellColor() tcell.Color {
	return colorOr(m.Color, tcell.ColorWhite)
}

// HPAt returns the monster's hit points on the given level.
func (m *MonsterDef) HPAt(depth int) int {
	if depth < 0 {
		depth = 0
	}
	return m.HP + m.HPPerLevel*depth
}

// MonstersFile represents the structure of monsters.json.
type MonstersFile struct {
	Monsters []MonsterDef `json:"monsters"`
}

// LoadMonsters loads monster definitions from the embedded monsters.json file.
func LoadMonsters() ([]MonsterDef, error) {
	return LoadMonstersFrom(dataFS)
}

// LoadMonstersFrom loads monster definitions from monsters.json in fsys.
func LoadMonstersFrom(fsys fs.FS) ([]MonsterDef, error) {
	file, err := LoadFrom[MonstersFile](fsys, "monsters.json")
	if err != nil {
		return nil, err
	}
	return file.Monsters, nil
}

func glyphRune(glyph string) rune {
	for _, r := range glyph {
		return r
	}
	return '?'
}
