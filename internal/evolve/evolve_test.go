package evolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chem-ca/internal/core"
	"chem-ca/internal/ssa"
)

type frameLog struct {
	frames []Frame
	err    error
}

func (l *frameLog) Record(_ context.Context, f Frame) error {
	if l.err != nil {
		return l.err
	}
	l.frames = append(l.frames, f)
	return nil
}

type updateLog struct {
	updates []Update
	err     error
}

func (l *updateLog) Publish(_ context.Context, u Update) error {
	l.updates = append(l.updates, u)
	return l.err
}

// conversion builds A -> B at rate k on a w x h lattice with amount A per site.
func conversion(w, h int, amount, k float64) (*ssa.Network, *core.Lattice) {
	net := ssa.NewNetwork(2, 1)
	net.Rates[0] = k
	copy(net.Row(0), []float64{-1, 1})
	lat := core.NewLattice(w, h, 2)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			lat.Site(x, y)[0] = amount
		}
	}
	return net, lat
}

func TestRunTimeFrames(t *testing.T) {
	net, lat := conversion(2, 2, 20, 0.1)
	rec := &frameLog{}
	d := &Driver{Network: net, Lattice: lat, Seed: 3, Incremental: true, Recorder: rec}

	sum, err := d.RunTime(context.Background(), 0, 5, 1)
	require.NoError(t, err)

	require.Len(t, rec.frames, 6)
	assert.Equal(t, 6, sum.Frames)
	for i, f := range rec.frames {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, float64(i), f.Time)
		assert.GreaterOrEqual(t, f.Clock, f.Time)
	}
	assert.Equal(t, 0, rec.frames[0].Events)
	assert.Equal(t, sum.Events, rec.frames[5].Events)
	assert.GreaterOrEqual(t, sum.Clock, 5.0)

	// frames are copies; A only decreases and mass is conserved
	prev := rec.frames[0].Lattice.Totals()
	assert.Equal(t, []float64{80, 0}, prev)
	for _, f := range rec.frames[1:] {
		tot := f.Lattice.Totals()
		assert.LessOrEqual(t, tot[0], prev[0])
		assert.Equal(t, 80.0, tot[0]+tot[1])
		prev = tot
	}
}

func TestRunTimeUnevenInterval(t *testing.T) {
	net, lat := conversion(1, 1, 5, 1)
	rec := &frameLog{}
	d := &Driver{Network: net, Lattice: lat, Seed: 1, Recorder: rec}

	_, err := d.RunTime(context.Background(), 1, 2, 0.4)
	require.NoError(t, err)

	var times []float64
	for _, f := range rec.frames {
		times = append(times, f.Time)
	}
	assert.InDeltaSlice(t, []float64{1, 1.4, 1.8, 2}, times, 1e-12)
}

func TestRunTimeDeterministic(t *testing.T) {
	run := func() ([]Frame, Summary) {
		net, lat := conversion(3, 2, 15, 0.3)
		rec := &frameLog{}
		d := &Driver{Network: net, Lattice: lat, Seed: 42, Recorder: rec}
		sum, err := d.RunTime(context.Background(), 0, 4, 0.5)
		require.NoError(t, err)
		return rec.frames, sum
	}
	f1, s1 := run()
	f2, s2 := run()
	assert.Equal(t, s1, s2)
	assert.Equal(t, f1, f2)
}

func TestRunTimeExhaustion(t *testing.T) {
	net, lat := conversion(1, 1, 3, 50)
	d := &Driver{Network: net, Lattice: lat, Seed: 9}

	sum, err := d.RunTime(context.Background(), 0, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Events)
	assert.Equal(t, ssa.Exhausted, sum.Status)
	assert.Equal(t, 10.0, sum.Clock)
	assert.Equal(t, []float64{0, 3}, lat.Totals())
}

func TestRunEvents(t *testing.T) {
	net, lat := conversion(2, 2, 50, 1)
	rec := &frameLog{}
	d := &Driver{Network: net, Lattice: lat, Seed: 5, Recorder: rec}

	sum, err := d.RunEvents(context.Background(), 7, 100, 30)
	require.NoError(t, err)
	assert.Equal(t, 100, sum.Events)
	assert.Equal(t, ssa.CountReached, sum.Status)
	assert.Equal(t, 7.0, sum.Clock)

	var events []int
	for _, f := range rec.frames {
		events = append(events, f.Events)
		assert.Equal(t, float64(f.Events), f.Time)
	}
	assert.Equal(t, []int{0, 30, 60, 90, 100}, events)
	assert.Equal(t, []float64{100, 100}, lat.Totals())
}

func TestRunEventsStopsWhenExhausted(t *testing.T) {
	net, lat := conversion(1, 2, 2, 1)
	rec := &frameLog{}
	d := &Driver{Network: net, Lattice: lat, Seed: 5, Recorder: rec}

	sum, err := d.RunEvents(context.Background(), 0, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Events)
	assert.Equal(t, ssa.Exhausted, sum.Status)
	assert.Equal(t, 4, rec.frames[len(rec.frames)-1].Events)
}

func TestContextCancelled(t *testing.T) {
	net, lat := conversion(2, 2, 10, 1)
	rec := &frameLog{}
	d := &Driver{Network: net, Lattice: lat, Seed: 5, Recorder: rec}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.RunTime(ctx, 0, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.frames, 1)

	_, err = d.RunEvents(ctx, 0, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecorderErrorStopsRun(t *testing.T) {
	net, lat := conversion(1, 1, 10, 1)
	boom := errors.New("disk full")
	d := &Driver{Network: net, Lattice: lat, Recorder: &frameLog{err: boom}}

	_, err := d.RunTime(context.Background(), 0, 1, 0.5)
	assert.ErrorIs(t, err, boom)
}

func TestPublisherErrorsAreIgnored(t *testing.T) {
	net, lat := conversion(1, 1, 10, 1)
	pub := &updateLog{err: errors.New("no listeners")}
	d := &Driver{Network: net, Lattice: lat, Species: []string{"A", "B"}, Publisher: pub}

	sum, err := d.RunEvents(context.Background(), 0, 4, 2)
	require.NoError(t, err)
	require.Len(t, pub.updates, 3)
	last := pub.updates[2]
	assert.Equal(t, sum.Events, last.Events)
	assert.Equal(t, []string{"A", "B"}, last.Species)
	assert.Equal(t, []float64{6, 4}, last.Totals)
}

func TestDriverArguments(t *testing.T) {
	_, err := (&Driver{}).RunTime(context.Background(), 0, 1, 1)
	assert.ErrorIs(t, err, ErrNoNetwork)

	net, lat := conversion(1, 1, 1, 1)
	d := &Driver{Network: net, Lattice: lat}
	_, err = d.RunTime(context.Background(), 0, 1, 0)
	assert.Error(t, err)
	_, err = d.RunTime(context.Background(), 2, 1, 1)
	assert.Error(t, err)
	_, err = d.RunEvents(context.Background(), 0, -1, 1)
	assert.Error(t, err)
}

func TestEngineErrorsAreWrapped(t *testing.T) {
	net, lat := conversion(1, 1, 1, 1)
	net.Rates[0] = -1
	d := &Driver{Network: net, Lattice: lat}

	_, err := d.RunTime(context.Background(), 0, 1, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ssa.ErrInvalidState)
}
