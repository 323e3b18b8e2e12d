package ui

import (
	"testing"

	"chem-ca/internal/core"
)

type reporter struct{ core.Sim }

func (reporter) Clock() float64           { return 2.5 }
func (reporter) Events() int              { return 12 }
func (reporter) SpeciesNames() []string   { return []string{"A"} }
func (reporter) SpeciesTotals() []float64 { return []float64{7} }

func TestReadoutOf(t *testing.T) {
	r := ReadoutOf(reporter{})
	if !r.HasClock || r.Clock != 2.5 || r.Events != 12 {
		t.Fatalf("clock readout = %+v", r)
	}
	if len(r.Names) != 1 || r.Totals[0] != 7 {
		t.Fatalf("species readout = %+v", r)
	}

	var plain struct{ core.Sim }
	if r := ReadoutOf(plain); r.HasClock || r.Names != nil {
		t.Fatalf("plain sim readout = %+v", r)
	}
}

func TestFormatCount(t *testing.T) {
	cases := map[float64]string{
		0:       "0",
		42:      "42",
		9999:    "9999",
		12345:   "12.3k",
		2500000: "2.50M",
		-3e9:    "-3.00G",
	}
	for v, want := range cases {
		if got := FormatCount(v); got != want {
			t.Errorf("FormatCount(%g) = %q, want %q", v, got, want)
		}
	}
}

func TestSpeciesIntensity(t *testing.T) {
	lat := core.NewLattice(3, 2, 2)
	lat.Site(0, 0)[1] = 4
	lat.Site(2, 1)[1] = 2
	lat.Site(1, 0)[0] = 9

	out := SpeciesIntensity(lat, 1, nil)
	want := []float32{1, 0, 0, 0, 0, 0.5}
	if len(out) != len(want) {
		t.Fatalf("len = %d", len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}

	reused := SpeciesIntensity(lat, 0, out)
	if &reused[0] != &out[0] {
		t.Fatal("buffer with enough capacity must be reused")
	}
	if reused[1] != 1 {
		t.Fatalf("species 0 intensity = %v", reused)
	}

	for _, v := range SpeciesIntensity(lat, 5, nil) {
		if v != 0 {
			t.Fatal("unknown species must give an empty mask")
		}
	}
}
