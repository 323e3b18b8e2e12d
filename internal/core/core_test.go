package core

import (
	"testing"
	"time"
)

func TestLatticeIndexIsSiteContiguous(t *testing.T) {
	l := NewLattice(3, 2, 4)
	if got := len(l.Values()); got != 24 {
		t.Fatalf("len(values) = %d, want 24", got)
	}
	if got := l.Index(1, 1, 2); got != (1*2+1)*4+2 {
		t.Fatalf("Index(1,1,2) = %d", got)
	}

	site := l.Site(2, 1)
	site[3] = 9
	if l.Values()[l.Index(2, 1, 3)] != 9 {
		t.Fatal("Site must alias the backing buffer")
	}
	if cap(site) != 4 {
		t.Fatalf("site capacity %d leaks into the neighbour", cap(site))
	}
}

func TestLatticeTotalsAndClone(t *testing.T) {
	l := NewLattice(2, 2, 2)
	l.Site(0, 0)[0] = 1
	l.Site(1, 1)[0] = 2
	l.Site(0, 1)[1] = 5

	totals := l.Totals()
	if totals[0] != 3 || totals[1] != 5 {
		t.Fatalf("totals = %v", totals)
	}

	c := l.Clone()
	l.Clear()
	if c.Totals()[1] != 5 {
		t.Fatal("clone must not share storage")
	}
	if l.Totals()[0] != 0 {
		t.Fatal("Clear must zero the lattice")
	}
}

func TestWrapLatticeSharesBuffer(t *testing.T) {
	buf := make([]float64, 6)
	l := WrapLattice(1, 3, 2, buf)
	l.Site(0, 2)[1] = 4
	if buf[5] != 4 {
		t.Fatalf("buf = %v", buf)
	}
}

func TestFixedStepDue(t *testing.T) {
	fs := NewFixedStep(10)
	start := time.Unix(0, 0)
	if got := fs.Due(start); got != 1 {
		t.Fatalf("first call = %d, want the primed step", got)
	}
	if got := fs.Due(start.Add(250 * time.Millisecond)); got != 2 {
		t.Fatalf("after 250ms = %d, want 2", got)
	}
	if got := fs.Due(start.Add(time.Hour)); got != 8 {
		t.Fatalf("burst = %d, want cap 8", got)
	}
}

func TestRegistrySorted(t *testing.T) {
	Register("zz-test", func(map[string]string) Sim { return nil })
	Register("aa-test", func(map[string]string) Sim { return nil })
	Register("", nil)

	names := SimNames()
	ia, iz := -1, -1
	for i, n := range names {
		switch n {
		case "aa-test":
			ia = i
		case "zz-test":
			iz = i
		}
	}
	if ia < 0 || iz < 0 || ia > iz {
		t.Fatalf("names = %v", names)
	}
}
