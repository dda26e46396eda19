package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/caves/internal/entity"
	"github.com/samdwyer/caves/internal/gamedata"
	"github.com/samdwyer/caves/internal/world"
)

// statusRows is the space kept below the map for messages.
const statusRows = 2

// View is everything drawn in one frame.
type View struct {
	Level    *world.Level
	Entities []*entity.Entity
	Explorer *entity.Explorer
	Status   string
	Message  string
}

// Renderer handles drawing levels to the screen.
type Renderer struct {
	screen  *Screen
	palette gamedata.Palette
	items   *gamedata.ItemRegistry
	scale   int
}

// NewRenderer creates a renderer that draws every map cell as a scale x scale
// block. items may be nil, in which case items use the palette.
func NewRenderer(screen *Screen, palette gamedata.Palette, items *gamedata.ItemRegistry, scale int) *Renderer {
	if scale < 1 {
		scale = 1
	}
	if palette == nil {
		palette = gamedata.DefaultPalette()
	}
	return &Renderer{screen: screen, palette: palette, items: items, scale: scale}
}

// Render draws the level, its entities and the explorer, scrolled so the
// explorer stays on screen.
func (r *Renderer) Render(v View) {
	r.screen.Clear()

	lvl := v.Level
	overlay := map[world.Pos]rune{}
	styles := map[world.Pos]tcell.Style{}
	for _, e := range v.Entities {
		overlay[e.Pos] = e.Glyph()
		styles[e.Pos] = r.entityStyle(e)
	}
	if v.Explorer != nil {
		overlay[v.Explorer.Pos] = v.Explorer.Symbol
		styles[v.Explorer.Pos] = tcell.StyleDefault.
			Foreground(r.palette.Color('@', tcell.ColorYellow)).
			Bold(true)
	}

	offX, offY := r.offset(lvl, v.Explorer)
	w, h := r.screen.Size()
	mapRows := h - statusRows

	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			p := world.Pos{X: x, Y: y}
			ch, ok := overlay[p]
			style := styles[p]
			if !ok {
				ch = r.tileRune(lvl, p)
				style = tcell.StyleDefault.Foreground(r.palette.Color(ch, tcell.ColorGray))
			}

			for dy := 0; dy < r.scale; dy++ {
				for dx := 0; dx < r.scale; dx++ {
					sx, sy := x*r.scale+dx-offX, y*r.scale+dy-offY
					if sx < 0 || sy < 0 || sx >= w || sy >= mapRows {
						continue
					}
					r.screen.SetContent(sx, sy, ch, style)
				}
			}
		}
	}

	r.RenderMessage(v.Status, h-2)
	r.RenderMessage(v.Message, h-1)
	r.screen.Show()
}

// offset returns the top-left screen cell so the explorer is centred when the
// scaled level is larger than the screen.
func (r *Renderer) offset(lvl *world.Level, ex *entity.Explorer) (int, int) {
	if ex == nil {
		return 0, 0
	}
	w, h := r.screen.Size()
	h -= statusRows
	return scroll(ex.Pos.X*r.scale, lvl.Width*r.scale, w), scroll(ex.Pos.Y*r.scale, lvl.Height*r.scale, h)
}

func scroll(at, total, visible int) int {
	if total <= visible || visible <= 0 {
		return 0
	}
	off := at - visible/2
	if off < 0 {
		return 0
	}
	if off > total-visible {
		return total - visible
	}
	return off
}

// tileRune returns the glyph for a map position, showing stairs over floor.
func (r *Renderer) tileRune(lvl *world.Level, p world.Pos) rune {
	switch {
	case lvl.Index > 0 && p == lvl.Entrance:
		return '<'
	case lvl.HasExit && p == lvl.Exit:
		return '>'
	default:
		return lvl.TileAt(p).Rune()
	}
}

func (r *Renderer) entityStyle(e *entity.Entity) tcell.Style {
	style := tcell.StyleDefault.Bold(true)
	switch e.Kind {
	case entity.KindMonster:
		if e.Monster != nil {
			return style.Foreground(e.Monster.Color)
		}
	case entity.KindItem, entity.KindPotion:
		if r.items != nil {
			if def := r.items.GetByID(e.DefID); def != nil {
				return style.Foreground(def.TCellColor())
			}
		}
	}
	return style.Foreground(r.palette.Color(e.Glyph(), tcell.ColorWhite))
}

// RenderMessage displays a message on row y.
func (r *Renderer) RenderMessage(msg string, y int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for i, ch := range []rune(msg) {
		r.screen.SetContent(i, y, ch, style)
	}
}
