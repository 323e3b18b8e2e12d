//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"chem-ca/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

var (
	colorPanel   = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	colorTitle   = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	colorText    = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	colorMuted   = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	colorButton  = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	colorButtonX = color.RGBA{R: 32, G: 34, B: 40, A: 255}
)

// HUD renders the run readout, the species legend and the adjustable
// parameters to the right of the lattice view.
type HUD struct {
	sim     core.Sim
	width   int
	palette []color.RGBA

	panel      *ebiten.Image
	lastHeight int
	pixel      *ebiten.Image

	readout  Readout
	controls []hudControl
	ctrlTop  int
	offsetX  int

	intSetter   core.IntParameterSetter
	floatSetter core.FloatParameterSetter
}

type hudControl struct {
	core.ParameterControl
	value    float64
	hasValue bool

	minusRect image.Rectangle
	plusRect  image.Rectangle
}

// NewHUD constructs a HUD for sim with a panel of the given width. The
// palette colors the species legend.
func NewHUD(sim core.Sim, width int, palette []color.RGBA) *HUD {
	if width < 0 {
		width = 0
	}
	h := &HUD{sim: sim, width: width, palette: palette}
	if width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		for _, ctrl := range p.ParameterControls() {
			h.controls = append(h.controls, hudControl{ParameterControl: ctrl})
		}
	}
	h.intSetter, _ = sim.(core.IntParameterSetter)
	h.floatSetter, _ = sim.(core.FloatParameterSetter)
	h.readout = ReadoutOf(sim)
	h.layout()
	return h
}

// Update refreshes the readout and control values and handles clicks on the
// +/- buttons. offsetX is the panel's left edge in screen coordinates.
func (h *HUD) Update(offsetX int) {
	if h == nil {
		return
	}
	h.offsetX = offsetX
	h.readout = ReadoutOf(h.sim)
	if p, ok := h.sim.(core.ParameterProvider); ok {
		snap := p.Parameters()
		for i := range h.controls {
			c := &h.controls[i]
			param, found := snap.Lookup(c.Key)
			c.hasValue = false
			if !found {
				continue
			}
			if v, err := strconv.ParseFloat(param.Value, 64); err == nil {
				c.value, c.hasValue = v, true
			}
		}
	}
	h.handleClick()
}

func (h *HUD) handleClick() {
	if len(h.controls) == 0 || !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	px := mx - h.offsetX
	if px < 0 {
		return
	}
	for i := range h.controls {
		c := &h.controls[i]
		switch {
		case pointInRect(px, my, c.minusRect):
			h.adjust(c, -1)
			return
		case pointInRect(px, my, c.plusRect):
			h.adjust(c, 1)
			return
		}
	}
}

// target returns the value one step away from c in direction dir and
// whether it differs from the current value.
func (h *HUD) target(c *hudControl, dir int) (float64, bool) {
	if !c.hasValue {
		return 0, false
	}
	step := c.Step
	switch c.Type {
	case core.ParamTypeInt:
		if h.intSetter == nil {
			return 0, false
		}
		step = math.Max(1, math.Round(step))
	case core.ParamTypeFloat:
		if h.floatSetter == nil {
			return 0, false
		}
		if step <= 0 {
			step = 0.05
		}
	default:
		return 0, false
	}
	v := c.Clamp(c.value + float64(dir)*step)
	return v, math.Abs(v-c.value) > 1e-9
}

func (h *HUD) adjust(c *hudControl, dir int) {
	v, ok := h.target(c, dir)
	if !ok {
		return
	}
	var applied bool
	if c.Type == core.ParamTypeInt {
		applied = h.intSetter.SetIntParameter(c.Key, int(math.Round(v)))
	} else {
		applied = h.floatSetter.SetFloatParameter(c.Key, v)
	}
	if applied {
		c.value = v
	}
}

// layout positions the controls below the species legend.
func (h *HUD) layout() {
	h.ctrlTop = panelPadding + headerBaseline + 2*rowHeight + len(h.readout.Names)*rowHeight + sectionGap
	for i := range h.controls {
		top := h.ctrlTop + i*lineHeight
		buttonY := top + (lineHeight-buttonSize)/2
		plus := image.Rect(h.width-panelPadding-buttonSize, buttonY, h.width-panelPadding, buttonY+buttonSize)
		minus := plus.Sub(image.Pt(buttonGap+buttonSize, 0))
		h.controls[i].minusRect, h.controls[i].plusRect = minus, plus
	}
}

// Draw paints the panel at offsetX.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(colorPanel)

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	text.Draw(h.panel, h.sim.Name(), face, panelPadding, y, colorTitle)

	if h.readout.HasClock {
		y += rowHeight
		text.Draw(h.panel, fmt.Sprintf("t %.4g", h.readout.Clock), face, panelPadding, y, colorText)
		y += rowHeight
		text.Draw(h.panel, "events "+FormatCount(float64(h.readout.Events)), face, panelPadding, y, colorText)
	} else {
		y += 2 * rowHeight
	}

	for i, name := range h.readout.Names {
		y += rowHeight
		swatch := image.Rect(panelPadding, y-swatchSize, panelPadding+swatchSize, y)
		if i+1 < len(h.palette) {
			h.fillRect(swatch, h.palette[i+1])
		}
		text.Draw(h.panel, name, face, panelPadding+swatchSize+buttonGap, y, colorText)
		if i < len(h.readout.Totals) {
			h.drawRight(FormatCount(h.readout.Totals[i]), y, colorText)
		}
	}

	if len(h.controls) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, h.ctrlTop+labelBaseline, colorMuted)
	}
	for i := range h.controls {
		c := &h.controls[i]
		base := h.ctrlTop + i*lineHeight + labelBaseline
		text.Draw(h.panel, c.Label, face, panelPadding, base, colorText)
		value, col := "--", colorMuted
		if c.hasValue {
			value, col = formatControl(c.ParameterControl, c.value), colorText
		}
		w := text.BoundString(face, value).Dx()
		text.Draw(h.panel, value, face, c.minusRect.Min.X-buttonGap-w, base, col)
		_, canDown := h.target(c, -1)
		_, canUp := h.target(c, 1)
		h.drawButton(c.minusRect, "-", canDown)
		h.drawButton(c.plusRect, "+", canUp)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawRight(s string, y int, col color.Color) {
	face := basicfont.Face7x13
	w := text.BoundString(face, s).Dx()
	text.Draw(h.panel, s, face, h.width-panelPadding-w, y, col)
}

func (h *HUD) fillRect(r image.Rectangle, col color.RGBA) {
	if h.pixel == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(col)
	h.panel.DrawImage(h.pixel, op)
}

func (h *HUD) drawButton(r image.Rectangle, label string, enabled bool) {
	bg, fg := colorButton, colorText
	if !enabled {
		bg, fg = colorButtonX, colorMuted
	}
	h.fillRect(r, bg)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := r.Min.X + (r.Dx()-b.Dx())/2
	y := r.Min.Y + (r.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

func formatControl(ctrl core.ParameterControl, v float64) string {
	if ctrl.Type == core.ParamTypeInt {
		return strconv.Itoa(int(math.Round(v)))
	}
	precision := 1
	switch {
	case ctrl.Step < 0.001:
		precision = 4
	case ctrl.Step < 0.01:
		precision = 3
	case ctrl.Step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func pointInRect(x, y int, r image.Rectangle) bool {
	return image.Pt(x, y).In(r)
}

const (
	panelPadding   = 12
	lineHeight     = 36
	rowHeight      = 16
	sectionGap     = 14
	swatchSize     = 10
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
)
