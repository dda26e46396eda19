package gamedata

import (
	"io/fs"

	"github.com/gdamore/tcell/v2"
)

// Item kinds as they appear in items.json.
const (
	ItemKindItem   = "item"
	ItemKindPotion = "potion"
)

// ItemDef defines a collectible loaded from JSON.
type ItemDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "item" or "potion"
	Glyph       string `json:"glyph"`
	Color       string `json:"color"`
	SpawnWeight int    `json:"spawnWeight"`
}

// GlyphRune returns the glyph as a rune for rendering.
func (d *ItemDef) GlyphRune() rune {
	return glyphRune(d.Glyph)
}

// TCellColor returns the color as a tcell.Color.
func (d *ItemDef) TCellColor() tcell.Color {
	return colorOr(d.Color, tcell.ColorYellow)
}

// IsPotion reports whether the definition describes a potion.
func (d *ItemDef) IsPotion() bool {
	return d.Kind == ItemKindPotion
}

// ItemsFile represents the structure of items.json.
type ItemsFile struct {
	Items []ItemDef `json:"items"`
}

// LoadItems loads item definitions from the embedded items.json file.
func LoadItems() ([]ItemDef, error) {
	return LoadItemsFrom(dataFS)
}

// LoadItemsFrom loads item definitions from items.json in fsys.
func LoadItemsFrom(fsys fs.FS) ([]ItemDef, error) {
	file, err := LoadFrom[ItemsFile](fsys, "items.json")
	if err != nil {
		return nil, err
	}
	return file.Items, nil
}
