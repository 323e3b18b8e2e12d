package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// TidyHeader is the column layout written by ExportCSV.
var TidyHeader = []string{"time", "position", "molecule", "abundance"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportCSV writes every observation of a run as tidy CSV, one row per frame,
// site and molecule. Positions are written as "(x, y)".
func (s *SQLiteStore) ExportCSV(ctx context.Context, id int64, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.run(ctx, id)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT f.time, o.x, o.y, o.molecule, o.abundance
FROM observations o
JOIN frames f ON f.run_id = o.run_id AND f.idx = o.frame
WHERE o.run_id = ?
ORDER BY o.frame, o.x, o.y, o.molecule`, id)
	if err != nil {
		return fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(TidyHeader); err != nil {
		return err
	}
	for rows.Next() {
		var (
			t       float64
			x, y, m int
			v       float64
		)
		if err := rows.Scan(&t, &x, &y, &m, &v); err != nil {
			return err
		}
		name := strconv.Itoa(m)
		if m < len(info.Molecules) {
			name = info.Molecules[m]
		}
		rec := []string{formatFloat(t), fmt.Sprintf("(%d, %d)", x, y), name, formatFloat(v)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ExportSeries writes lattice-wide totals as CSV with one row per molecule and
// one column per frame time.
func (s *SQLiteStore) ExportSeries(ctx context.Context, id int64, w io.Writer) error {
	frames, err := s.Frames(ctx, id)
	if err != nil {
		return err
	}
	info, err := s.Run(ctx, id)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(frames)+1)
	header = append(header, "molecule")
	totals := make([][]float64, len(frames))
	for i, f := range frames {
		header = append(header, formatFloat(f.Time))
		totals[i] = f.Lattice.Totals()
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for m, name := range info.Molecules {
		rec := make([]string, 0, len(frames)+1)
		rec = append(rec, name)
		for i := range frames {
			rec = append(rec, formatFloat(totals[i][m]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
