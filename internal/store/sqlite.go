package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"chem-ca/internal/core"
	"chem-ca/internal/evolve"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("store: run not found")

// SchemaVersion is the current database layout.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    seed INTEGER NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    network TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS molecules (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (run_id, idx)
);

CREATE TABLE IF NOT EXISTS frames (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    time REAL NOT NULL,
    clock REAL NOT NULL,
    events INTEGER NOT NULL,
    PRIMARY KEY (run_id, idx)
);

-- one row per (frame, site, molecule), tidy layout
CREATE TABLE IF NOT EXISTS observations (
    run_id INTEGER NOT NULL,
    frame INTEGER NOT NULL,
    x INTEGER NOT NULL,
    y INTEGER NOT NULL,
    molecule INTEGER NOT NULL,
    abundance REAL NOT NULL,
    PRIMARY KEY (run_id, frame, x, y, molecule),
    FOREIGN KEY (run_id, frame) REFERENCES frames(run_id, idx) ON DELETE CASCADE
);
`

// InitSchema creates the tables if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// RunInfo describes one archived run.
type RunInfo struct {
	ID        int64
	Name      string
	Seed      int64
	Width     int
	Height    int
	Molecules []string
	// Network is the reaction system in text form, kept for provenance.
	Network   string
	CreatedAt time.Time
}

// SQLiteStore archives runs and their frames in a SQLite database.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps :memory: on one connection

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginRun registers a new run and returns a recorder that appends its frames.
func (s *SQLiteStore) BeginRun(ctx context.Context, info RunInfo) (*RunRecorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (name, seed, width, height, network, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		info.Name, info.Seed, info.Width, info.Height, info.Network, info.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read run id: %w", err)
	}
	for i, name := range info.Molecules {
		if _, err := tx.ExecContext(ctx, `INSERT INTO molecules (run_id, idx, name) VALUES (?, ?, ?)`, id, i, name); err != nil {
			return nil, fmt.Errorf("failed to insert molecule %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	info.ID = id
	return &RunRecorder{store: s, info: info}, nil
}

// RunRecorder writes the frames of one run. It implements evolve.Recorder.
type RunRecorder struct {
	store *SQLiteStore
	info  RunInfo
}

// ID returns the run id.
func (r *RunRecorder) ID() int64 { return r.info.ID }

// Record stores the frame and every (site, molecule) abundance in one
// transaction.
func (r *RunRecorder) Record(ctx context.Context, f evolve.Frame) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	lat := f.Lattice
	if lat.W != r.info.Width || lat.H != r.info.Height || lat.Species != len(r.info.Molecules) {
		return fmt.Errorf("frame %d is %dx%dx%d, run %d is %dx%dx%d", f.Index,
			lat.W, lat.H, lat.Species, r.info.ID, r.info.Width, r.info.Height, len(r.info.Molecules))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO frames (run_id, idx, time, clock, events) VALUES (?, ?, ?, ?, ?)`,
		r.info.ID, f.Index, f.Time, f.Clock, f.Events); err != nil {
		return fmt.Errorf("failed to insert frame: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (run_id, frame, x, y, molecule, abundance) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for x := 0; x < lat.W; x++ {
		for y := 0; y < lat.H; y++ {
			for m, v := range lat.Site(x, y) {
				if _, err := stmt.ExecContext(ctx, r.info.ID, f.Index, x, y, m, v); err != nil {
					return fmt.Errorf("failed to insert observation: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// Runs lists archived runs, oldest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	runs := make([]RunInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.run(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, nil
}

// Run returns the metadata of one run.
func (s *SQLiteStore) Run(ctx context.Context, id int64) (RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, id)
}

func (s *SQLiteStore) run(ctx context.Context, id int64) (RunInfo, error) {
	info := RunInfo{ID: id}
	var network sql.NullString
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, seed, width, height, network, created_at FROM runs WHERE id = ?`, id).
		Scan(&info.Name, &info.Seed, &info.Width, &info.Height, &network, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return info, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	info.Network = network.String
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		info.CreatedAt = t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM molecules WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return info, fmt.Errorf("failed to load molecules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return info, err
		}
		info.Molecules = append(info.Molecules, name)
	}
	return info, rows.Err()
}

// Frames rebuilds every recorded frame of a run.
func (s *SQLiteStore) Frames(ctx context.Context, id int64) ([]evolve.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.run(ctx, id)
	if err != nil {
		return nil, err
	}

	var frames []evolve.Frame
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, time, clock, events FROM frames WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}
	for rows.Next() {
		f := evolve.Frame{Lattice: core.NewLattice(info.Width, info.Height, len(info.Molecules))}
		if err := rows.Scan(&f.Index, &f.Time, &f.Clock, &f.Events); err != nil {
			rows.Close()
			return nil, err
		}
		frames = append(frames, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byIndex := make(map[int]*core.Lattice, len(frames))
	for i := range frames {
		byIndex[frames[i].Index] = frames[i].Lattice
	}

	obs, err := s.db.QueryContext(ctx,
		`SELECT frame, x, y, molecule, abundance FROM observations WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}
	defer obs.Close()
	for obs.Next() {
		var frame, x, y, m int
		var v float64
		if err := obs.Scan(&frame, &x, &y, &m, &v); err != nil {
			return nil, err
		}
		lat, ok := byIndex[frame]
		if !ok || x >= lat.W || y >= lat.H || m >= lat.Species {
			continue
		}
		lat.Site(x, y)[m] = v
	}
	return frames, obs.Err()
}

// DeleteRun removes a run with all its frames.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

var _ evolve.Recorder = (*RunRecorder)(nil)
