package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/collide/engine"
)

const (
	diskRune = '█'
	dotRune  = '●'

	// Lab lightness below which a particle color is swapped for the fallback
	minLightness = 0.25
)

var (
	// RgbBackground is the field color
	RgbBackground = tcell.NewRGBColor(12, 12, 16)
	// RgbFallback replaces colors that would vanish against the background
	RgbFallback = tcell.NewRGBColor(210, 210, 210)
	// RgbStatusFg and RgbStatusBg style the bottom row
	RgbStatusFg = tcell.NewRGBColor(20, 20, 20)
	RgbStatusBg = tcell.NewRGBColor(140, 180, 220)
)

// Terminal draws snapshots onto a tcell screen
// The unit square fills every row but the last, y grows upward
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
	status string
	styles map[string]tcell.Style
}

// NewTerminal wraps an initialized screen
func NewTerminal(screen tcell.Screen) *Terminal {
	return &Terminal{
		screen: screen,
		styles: make(map[string]tcell.Style),
	}
}

// SetStatus sets extra text appended to the status row
func (t *Terminal) SetStatus(status string) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

// Render implements engine.Renderer
func (t *Terminal) Render(snap engine.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	width, height := t.screen.Size()
	if width < 1 || height < 2 {
		return
	}
	field := height - 1

	bg := tcell.StyleDefault.Background(RgbBackground)
	t.screen.Fill(' ', bg)

	for _, p := range snap.Particles {
		t.drawDisk(p, width, field, t.particleStyle(p.Color))
	}
	t.drawStatus(snap, width, height-1)

	t.screen.Show()
}

// cell maps a box coordinate to a screen cell, clamped to the field
func cell(x, y float64, width, field int) (int, int) {
	col := int(math.Floor(x * float64(width)))
	row := int(math.Floor((1 - y) * float64(field)))
	return clamp(col, 0, width-1), clamp(row, 0, field-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawDisk fills every cell whose center lies inside the disk
// Disks smaller than a cell still get their center cell
func (t *Terminal) drawDisk(p engine.ParticleState, width, field int, style tcell.Style) {
	cx, cy := cell(p.X, p.Y, width, field)
	x0, y1 := cell(p.X-p.Radius, p.Y-p.Radius, width, field)
	x1, y0 := cell(p.X+p.Radius, p.Y+p.Radius, width, field)

	cw, ch := 1/float64(width), 1/float64(field)
	r2 := p.Radius * p.Radius
	drawn := false
	for row := y0; row <= y1; row++ {
		for col := x0; col <= x1; col++ {
			dx := (float64(col)+0.5)*cw - p.X
			dy := 1 - (float64(row)+0.5)*ch - p.Y
			if dx*dx+dy*dy <= r2 {
				t.screen.SetContent(col, row, diskRune, nil, style)
				drawn = true
			}
		}
	}
	if !drawn {
		t.screen.SetContent(cx, cy, dotRune, nil, style)
	}
}

func (t *Terminal) drawStatus(snap engine.Snapshot, width, row int) {
	style := tcell.StyleDefault.Foreground(RgbStatusFg).Background(RgbStatusBg)
	line := fmt.Sprintf(" t=%.3f  E=%.6g  events=%d  n=%d", snap.Time, snap.Energy, snap.Events, len(snap.Particles))
	if t.status != "" {
		line += "  " + t.status
	}
	col := 0
	for _, ch := range line {
		if col >= width {
			break
		}
		t.screen.SetContent(col, row, ch, nil, style)
		col++
	}
	for ; col < width; col++ {
		t.screen.SetContent(col, row, ' ', nil, style)
	}
}

// particleStyle resolves and caches the style for a hex color
func (t *Terminal) particleStyle(hex string) tcell.Style {
	if style, ok := t.styles[hex]; ok {
		return style
	}
	fg := RgbFallback
	if c, err := colorful.Hex(hex); err == nil {
		if l, _, _ := c.Lab(); l >= minLightness {
			r, g, b := c.RGB255()
			fg = tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
	}
	style := tcell.StyleDefault.Foreground(fg).Background(RgbBackground)
	t.styles[hex] = style
	return style
}
