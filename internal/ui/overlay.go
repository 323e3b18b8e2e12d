//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"chem-ca/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type latticeProvider interface {
	Lattice() *core.Lattice
	SpeciesNames() []string
}

// Overlay shades the lattice by the abundance of one selected species. Tab
// cycles through the species and back to off; Backspace turns it off.
type Overlay struct {
	sim     core.Sim
	scale   int
	palette []color.RGBA

	selected int // -1 when off
	img      *ebiten.Image
	buf      []byte
	mask     []float32
}

// NewOverlay constructs an overlay drawn at the given pixel scale.
func NewOverlay(sim core.Sim, scale int, palette []color.RGBA) *Overlay {
	return &Overlay{sim: sim, scale: max(scale, 1), palette: palette, selected: -1}
}

// Update handles the overlay hotkeys.
func (o *Overlay) Update() {
	p, ok := o.sim.(latticeProvider)
	if !ok {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		o.selected = -1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		o.selected++
		if o.selected >= len(p.SpeciesNames()) {
			o.selected = -1
		}
	}
}

// Draw renders the heatmap of the selected species onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	p, ok := o.sim.(latticeProvider)
	if !ok || o.selected < 0 {
		return
	}
	lat := p.Lattice()
	if lat == nil || o.selected >= lat.Species {
		return
	}
	total := lat.Sites()
	if o.img == nil || o.img.Bounds().Dx() != lat.W || o.img.Bounds().Dy() != lat.H {
		o.img = ebiten.NewImage(lat.W, lat.H)
	}
	if len(o.buf) != 4*total {
		o.buf = make([]byte, 4*total)
	}
	o.mask = SpeciesIntensity(lat, o.selected, o.mask)

	tint := color.RGBA{R: 255, G: 255, B: 255}
	if o.selected+1 < len(o.palette) {
		tint = o.palette[o.selected+1]
	}
	const (
		maxAlpha      = 200.0
		glowBase      = 0.35
		glowRange     = 0.65
		intensityBias = 0.75
	)
	for i, v := range o.mask {
		base := i * 4
		intensity := float64(v)
		if intensity <= 0 {
			o.buf[base+0], o.buf[base+1], o.buf[base+2], o.buf[base+3] = 0, 0, 0, 0
			continue
		}
		glow := glowBase + glowRange*math.Sqrt(intensity)
		o.buf[base+0] = scaleColorComponent(tint.R, glow)
		o.buf[base+1] = scaleColorComponent(tint.G, glow)
		o.buf[base+2] = scaleColorComponent(tint.B, glow)
		o.buf[base+3] = uint8(math.Round(maxAlpha * math.Pow(intensity, intensityBias)))
	}
	o.img.WritePixels(o.buf)

	// dim the base view so the heatmap stands out
	screen.Fill(color.RGBA{A: 255})
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(o.scale), float64(o.scale))
	screen.DrawImage(o.img, op)

	label := p.SpeciesNames()[o.selected]
	text.Draw(screen, label, basicfont.Face7x13, 6, 16, color.White)
}

func scaleColorComponent(value uint8, factor float64) uint8 {
	scaled := math.Round(float64(value) * factor)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}
