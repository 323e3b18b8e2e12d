package render

import (
	"image/color"
	"slices"
	"testing"
)

type paletted struct{ pal []color.RGBA }

func (p paletted) Palette() []color.RGBA { return p.pal }

func TestFillPaletteRGBA(t *testing.T) {
	pal := []color.RGBA{{R: 1, G: 2, B: 3, A: 4}, {R: 10, G: 20, B: 30, A: 40}}
	cells := []uint8{0, 1, 7}
	buf := make([]byte, 4*len(cells))
	fillPaletteRGBA(buf, cells, pal)

	want := []byte{1, 2, 3, 4, 10, 20, 30, 40, 10, 20, 30, 40}
	if !slices.Equal(buf, want) {
		t.Fatalf("buf = %v, want %v", buf, want)
	}

	fillPaletteRGBA(buf, cells, nil)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d after empty palette", i, b)
		}
	}
}

func TestPaletteOf(t *testing.T) {
	own := []color.RGBA{{R: 9, A: 255}}
	if got := PaletteOf(paletted{own}); !slices.Equal(got, own) {
		t.Fatalf("PaletteOf = %v", got)
	}
	if got := PaletteOf(paletted{}); !slices.Equal(got, DefaultPalette) {
		t.Fatal("empty palette must fall back to DefaultPalette")
	}
	if got := PaletteOf(struct{}{}); !slices.Equal(got, DefaultPalette) {
		t.Fatal("sim without palette must use DefaultPalette")
	}
}
