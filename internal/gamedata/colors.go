package gamedata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// ParseHexColor converts a hex color string (e.g., "#FF0000" or "FF0000") to a tcell.Color
// as used by the viewer.
func ParseHexColor(hex string) (tcell.Color, error) {
	// Remove leading # if present
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) != 6 {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color length: %s", hex)
	}

	// Parse RGB components
	r, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid red component in %s: %w", hex, err)
	}

	g, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid green component in %s: %w", hex, err)
	}

	b, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid blue component in %s: %w", hex, err)
	}

	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
}

// MustParseHexColor converts a hex color string to tcell.Color, panicking on error.
func MustParseHexColor(hex string) tcell.Color {
	color, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return color
}

// colorOr parses hex, returning fallback when it is not a valid color.
func colorOr(hex string, fallback tcell.Color) tcell.Color {
	color, err := ParseHexColor(hex)
	if err != nil {
		return fallback
	}
	return color
}

// Palette maps map glyphs to display colors for the viewer.
type Palette map[rune]tcell.Color

// DefaultPalette returns the colors used for tiles, stairs and keys.
func DefaultPalette() Palette {
	return Palette{
		'#':  MustParseHexColor("#6B6B6B"),
		'.':  MustParseHexColor("#3A3A3A"),
		'+':  MustParseHexColor("#CD853F"),
		'\'': MustParseHexColor("#8B6914"),
		'&':  MustParseHexColor("#FFD700"),
		'<':  tcell.ColorWhite,
		'>':  tcell.ColorWhite,
		'k':  MustParseHexColor("#C0C0C0"),
		'$':  MustParseHexColor("#FFD700"),
		'@':  tcell.ColorYellow,
	}
}

// Color returns the color for glyph, or fallback if the palette has none.
func (p Palette) Color(glyph rune, fallback tcell.Color) tcell.Color {
	if c, ok := p[glyph]; ok {
		return c
	}
	return fallback
}
