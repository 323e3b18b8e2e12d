// Package render converts simulation cell buffers into pixels.
package render

import "image/color"

// DefaultPalette is used for sims that do not provide their own colors.
var DefaultPalette = []color.RGBA{
	{R: 0, G: 0, B: 0, A: 255},
	{R: 255, G: 255, B: 255, A: 255},
}

// PaletteProvider is implemented by sims with their own cell colors.
type PaletteProvider interface {
	Palette() []color.RGBA
}

// PaletteOf returns the sim's palette when it has one and DefaultPalette
// otherwise.
func PaletteOf(sim any) []color.RGBA {
	if p, ok := sim.(PaletteProvider); ok {
		if pal := p.Palette(); len(pal) > 0 {
			return pal
		}
	}
	return DefaultPalette
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black. Values past
// the end of the palette use its last color.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
