package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chem-ca/internal/core"
	"chem-ca/internal/ssa"
)

func fixed(totals map[int64][]float64) Scenario {
	return func(_ context.Context, seed int64) (Outcome, error) {
		t, ok := totals[seed]
		if !ok {
			return Outcome{}, errors.New("no such seed")
		}
		return Outcome{Totals: t}, nil
	}
}

func TestRunStats(t *testing.T) {
	sc := fixed(map[int64][]float64{
		10: {1, 10},
		11: {2, 10},
		12: {3, 10},
	})
	rep, err := Run(context.Background(), []string{"A", "B"}, Options{Replicates: 3, Workers: 2, BaseSeed: 10}, sc)
	require.NoError(t, err)

	require.Len(t, rep.Replicates, 3)
	for i, r := range rep.Replicates {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, int64(10+i), r.Seed)
	}
	assert.Zero(t, rep.Failed)
	assert.Equal(t, []float64{2, 10}, rep.Stats.Mean)
	assert.InDeltaSlice(t, []float64{1, 0}, rep.Stats.StdDev, 1e-12)
	assert.Equal(t, []float64{1, 10}, rep.Stats.Min)
	assert.Equal(t, []float64{3, 10}, rep.Stats.Max)
}

func TestRunCountsFailures(t *testing.T) {
	sc := fixed(map[int64][]float64{0: {4}, 2: {6}})
	rep, err := Run(context.Background(), []string{"A"}, Options{Replicates: 3, Workers: 3}, sc)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Error(t, rep.Replicates[1].Err)
	assert.Equal(t, []float64{5}, rep.Stats.Mean)
}

func TestRunRejectsShortTotals(t *testing.T) {
	sc := fixed(map[int64][]float64{0: {1, 2}, 1: {3}, 2: {5, 6}})
	rep, err := Run(context.Background(), []string{"A", "B"}, Options{Replicates: 3, Workers: 2}, sc)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.ErrorIs(t, rep.Replicates[1].Err, ErrShortTotals)
	assert.Equal(t, []float64{3, 4}, rep.Stats.Mean)
}

func TestRunBoundsWorkers(t *testing.T) {
	var running, peak int32
	sc := func(_ context.Context, seed int64) (Outcome, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return Outcome{Totals: []float64{float64(seed)}}, nil
	}
	rep, err := Run(context.Background(), []string{"A"}, Options{Replicates: 20, Workers: 3}, sc)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Equal(t, []float64{9.5}, rep.Stats.Mean)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []string{"A"}, Options{Replicates: 5, Workers: 2}, fixed(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLatticeScenarioIsDeterministic(t *testing.T) {
	net := ssa.NewNetwork(2, 1)
	net.Rates[0] = 1
	copy(net.Row(0), []float64{-1, 1})
	build := func(seed int64) (*core.Lattice, error) {
		lat := core.NewLattice(3, 3, 2)
		for x := 0; x < 3; x++ {
			for y := 0; y < 3; y++ {
				lat.Site(x, y)[0] = 10
			}
		}
		return lat, nil
	}
	sc := LatticeScenario(net, build, 0, ssa.RunUntil(0.5), true)

	a, err := Run(context.Background(), []string{"A", "B"}, Options{Replicates: 6, Workers: 3, BaseSeed: 1}, sc)
	require.NoError(t, err)
	b, err := Run(context.Background(), []string{"A", "B"}, Options{Replicates: 6, Workers: 1, BaseSeed: 1}, sc)
	require.NoError(t, err)

	assert.Equal(t, a.Replicates, b.Replicates)
	assert.Equal(t, a.Stats, b.Stats)
	for _, r := range a.Replicates {
		assert.Equal(t, 90.0, r.Totals[0]+r.Totals[1])
	}
}

func TestLatticeScenarioBuildError(t *testing.T) {
	net := ssa.NewNetwork(1, 1)
	sc := LatticeScenario(net, func(int64) (*core.Lattice, error) { return nil, errors.New("nope") }, 0, ssa.RunFor(1), false)
	_, err := sc(context.Background(), 1)
	assert.Error(t, err)
}
