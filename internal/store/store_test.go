package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chem-ca/internal/core"
	"chem-ca/internal/evolve"
	"chem-ca/internal/ssa"
)

func testLattice(base float64) *core.Lattice {
	lat := core.NewLattice(2, 1, 2)
	copy(lat.Values(), []float64{base, 1, base + 1, 2})
	return lat
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRecordAndFrames(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, err := s.BeginRun(ctx, RunInfo{Name: "decay", Seed: 7, Width: 2, Height: 1, Molecules: []string{"A", "B"}, Network: "net"})
	require.NoError(t, err)
	require.Positive(t, rec.ID())

	require.NoError(t, rec.Record(ctx, evolve.Frame{Index: 0, Time: 0, Clock: 0, Events: 0, Lattice: testLattice(10)}))
	require.NoError(t, rec.Record(ctx, evolve.Frame{Index: 1, Time: 1, Clock: 1.25, Events: 4, Lattice: testLattice(6)}))

	info, err := s.Run(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "decay", info.Name)
	assert.Equal(t, int64(7), info.Seed)
	assert.Equal(t, []string{"A", "B"}, info.Molecules)
	assert.Equal(t, "net", info.Network)
	assert.False(t, info.CreatedAt.IsZero())

	frames, err := s.Frames(ctx, rec.ID())
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 1.25, frames[1].Clock)
	assert.Equal(t, 4, frames[1].Events)
	assert.Equal(t, testLattice(6).Values(), frames[1].Lattice.Values())
	assert.Equal(t, testLattice(10).Values(), frames[0].Lattice.Values())
}

func TestSQLiteRejectsMismatchedFrame(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec, err := s.BeginRun(ctx, RunInfo{Name: "x", Width: 3, Height: 3, Molecules: []string{"A", "B"}})
	require.NoError(t, err)
	assert.Error(t, rec.Record(ctx, evolve.Frame{Lattice: testLattice(1)}))
}

func TestSQLiteRunNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Run(ctx, 99)
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.Frames(ctx, 99)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, 99), ErrRunNotFound)
	assert.ErrorIs(t, s.ExportCSV(ctx, 99, &bytes.Buffer{}), ErrRunNotFound)
}

func TestSQLiteRunsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.BeginRun(ctx, RunInfo{Name: "one", Width: 2, Height: 1, Molecules: []string{"A", "B"}})
	require.NoError(t, err)
	require.NoError(t, first.Record(ctx, evolve.Frame{Lattice: testLattice(1)}))
	_, err = s.BeginRun(ctx, RunInfo{Name: "two", Width: 1, Height: 1, Molecules: []string{"C"}})
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "one", runs[0].Name)
	assert.Equal(t, []string{"C"}, runs[1].Molecules)

	require.NoError(t, s.DeleteRun(ctx, first.ID()))
	runs, err = s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "two", runs[0].Name)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec, err := s.BeginRun(ctx, RunInfo{Name: "csv", Width: 2, Height: 1, Molecules: []string{"A", "B"}})
	require.NoError(t, err)
	require.NoError(t, rec.Record(ctx, evolve.Frame{Index: 0, Time: 0.5, Lattice: testLattice(3)}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(ctx, rec.ID(), &buf))

	want := strings.Join([]string{
		"time,position,molecule,abundance",
		`0.5,"(0, 0)",A,3`,
		`0.5,"(0, 0)",B,1`,
		`0.5,"(1, 0)",A,4`,
		`0.5,"(1, 0)",B,2`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestExportSeries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec, err := s.BeginRun(ctx, RunInfo{Name: "series", Width: 2, Height: 1, Molecules: []string{"A", "B"}})
	require.NoError(t, err)
	require.NoError(t, rec.Record(ctx, evolve.Frame{Index: 0, Time: 0, Lattice: testLattice(3)}))
	require.NoError(t, rec.Record(ctx, evolve.Frame{Index: 1, Time: 2, Lattice: testLattice(1)}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportSeries(ctx, rec.ID(), &buf))
	assert.Equal(t, "molecule,0,2\nA,7,3\nB,3,3\n", buf.String())
}

func TestDriverWritesToSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	lat := core.NewLattice(2, 2, 2)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			lat.Site(x, y)[0] = 5
		}
	}
	rec, err := s.BeginRun(ctx, RunInfo{Name: "driver", Width: 2, Height: 2, Molecules: []string{"A", "B"}})
	require.NoError(t, err)

	d := &evolve.Driver{Network: conversionNetwork(), Lattice: lat, Seed: 11, Recorder: rec}
	sum, err := d.RunEvents(ctx, 0, 12, 4)
	require.NoError(t, err)

	frames, err := s.Frames(ctx, rec.ID())
	require.NoError(t, err)
	require.Len(t, frames, sum.Frames)
	assert.Equal(t, lat.Values(), frames[len(frames)-1].Lattice.Values())
}

func TestMemoryRecorder(t *testing.T) {
	m := NewMemoryRecorder()
	_, ok := m.Last()
	assert.False(t, ok)

	require.NoError(t, m.Record(context.Background(), evolve.Frame{Index: 0}))
	require.NoError(t, m.Record(context.Background(), evolve.Frame{Index: 1}))
	assert.Len(t, m.Frames(), 2)
	last, ok := m.Last()
	assert.True(t, ok)
	assert.Equal(t, 1, last.Index)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lat := testLattice(8)
	snap := NewSnapshot(lat, []string{"A", "B"}, 3.5, 12, 99)

	for _, name := range []string{"state.json", "state.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveSnapshot(path, snap))
		_, err := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err), "temporary file left behind")

		back, err := LoadSnapshot(path)
		require.NoError(t, err, name)
		assert.Equal(t, snap, back, name)

		restored, err := back.Lattice()
		require.NoError(t, err)
		assert.Equal(t, lat.Values(), restored.Values())
		assert.Equal(t, 2, restored.W)
	}
}

func TestSnapshotValidation(t *testing.T) {
	snap := NewSnapshot(testLattice(1), []string{"A", "B"}, 0, 0, 0)
	snap.Concentrations = snap.Concentrations[:3]
	_, err := snap.Lattice()
	assert.ErrorIs(t, err, ErrBadSnapshot)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 2}`), 0o644))
	_, err = LoadSnapshot(path)
	assert.ErrorIs(t, err, ErrBadSnapshot)
}

func conversionNetwork() *ssa.Network {
	net := ssa.NewNetwork(2, 1)
	net.Rates[0] = 1
	copy(net.Row(0), []float64{-1, 1})
	return net
}
