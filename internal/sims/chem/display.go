package chem

import (
	"image/color"
	"math"
)

var chemPalette = buildChemPalette()

// Palette maps cell values to colors: 0 (empty) is black and each species
// gets a distinct hue.
func (w *World) Palette() []color.RGBA {
	return chemPalette
}

func buildChemPalette() []color.RGBA {
	palette := make([]color.RGBA, 256)
	palette[0] = color.RGBA{R: 12, G: 12, B: 16, A: 255}
	hue := 0.0
	for i := 1; i < len(palette); i++ {
		palette[i] = hsvToRGBA(hue, 0.65, 0.95)
		// golden angle keeps neighbouring species apart
		hue = math.Mod(hue+137.508, 360)
	}
	return palette
}

func hsvToRGBA(h, s, v float64) color.RGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8((r+m)*255 + 0.5),
		G: uint8((g+m)*255 + 0.5),
		B: uint8((b+m)*255 + 0.5),
		A: 255,
	}
}
