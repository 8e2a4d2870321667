// Package trackdb persists precomputed 2D tracks and their segments so the
// explicit replay modes can load a track set without regenerating it, and
// records sweep runs for later inspection.
package trackdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/moclab/traverse/internal/monitoring"
	"github.com/moclab/traverse/internal/traverse"
)

// Store wraps the SQLite track database.
type Store struct {
	*sql.DB
}

// Open opens (creating if necessary) a track database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS materials (
			material_id INTEGER PRIMARY KEY,
			name TEXT
		);
		CREATE TABLE IF NOT EXISTS tracks2d (
			track_id INTEGER PRIMARY KEY AUTOINCREMENT,
			azim INTEGER,
			xy INTEGER,
			phi DOUBLE,
			x0 DOUBLE, y0 DOUBLE, z0 DOUBLE,
			x1 DOUBLE, y1 DOUBLE, z1 DOUBLE
		);
		CREATE TABLE IF NOT EXISTS segments2d (
			track_id INTEGER,
			seq INTEGER,
			length DOUBLE,
			material_id INTEGER,
			region_id INTEGER,
			surface_fwd INTEGER,
			surface_bwd INTEGER,
			PRIMARY KEY (track_id, seq),
			FOREIGN KEY (track_id) REFERENCES tracks2d(track_id)
		);
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			formation TEXT,
			tracks BIGINT,
			segments BIGINT,
			elapsed_ns BIGINT,
			created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating track schema: %w", err)
	}

	return &Store{db}, nil
}

// SaveTracks replaces the stored 2D track set with the given one. Tracks are
// written inside one transaction so a failed save leaves the previous set
// intact.
func (s *Store) SaveTracks(tracks [][]traverse.Track2D) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM segments2d", "DELETE FROM tracks2d", "DELETE FROM materials",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	insTrack, err := tx.Prepare(`INSERT INTO tracks2d
		(azim, xy, phi, x0, y0, z0, x1, y1, z1)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insTrack.Close()
	insSeg, err := tx.Prepare(`INSERT INTO segments2d
		(track_id, seq, length, material_id, region_id, surface_fwd, surface_bwd)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insSeg.Close()

	materials := make(map[int]string)
	for a := range tracks {
		for i := range tracks[a] {
			t := &tracks[a][i]
			res, err := insTrack.Exec(t.AzimIndex, t.XYIndex, t.Phi,
				t.Start.X, t.Start.Y, t.Start.Z, t.End.X, t.End.Y, t.End.Z)
			if err != nil {
				return err
			}
			trackID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for seq, seg := range t.Segments {
				matID := traverse.SurfaceNone
				if seg.Material != nil {
					matID = seg.Material.ID
					materials[matID] = seg.Material.Name
				}
				if _, err := insSeg.Exec(trackID, seq, seg.Length, matID,
					seg.RegionID, seg.SurfaceFwd, seg.SurfaceBwd); err != nil {
					return err
				}
			}
		}
	}

	insMat, err := tx.Prepare("INSERT INTO materials (material_id, name) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer insMat.Close()
	for id, name := range materials {
		if _, err := insMat.Exec(id, name); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadTracks reads the stored 2D track set back, grouped by azimuthal index.
// Segments referencing the same material share one Material value.
func (s *Store) LoadTracks() ([][]traverse.Track2D, error) {
	materials := make(map[int]*traverse.Material)
	rows, err := s.Query("SELECT material_id, name FROM materials")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		m := &traverse.Material{}
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			rows.Close()
			return nil, err
		}
		materials[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	type rec struct {
		id    int64
		track traverse.Track2D
	}
	var recs []rec
	rows, err = s.Query(`SELECT track_id, azim, xy, phi, x0, y0, z0, x1, y1, z1
		FROM tracks2d ORDER BY azim, xy`)
	if err != nil {
		return nil, err
	}
	maxAzim := -1
	for rows.Next() {
		var r rec
		t := &r.track
		if err := rows.Scan(&r.id, &t.AzimIndex, &t.XYIndex, &t.Phi,
			&t.Start.X, &t.Start.Y, &t.Start.Z,
			&t.End.X, &t.End.Y, &t.End.Z); err != nil {
			rows.Close()
			return nil, err
		}
		if t.AzimIndex > maxAzim {
			maxAzim = t.AzimIndex
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for ri := range recs {
		r := &recs[ri]
		segRows, err := s.Query(`SELECT length, material_id, region_id, surface_fwd, surface_bwd
			FROM segments2d WHERE track_id = ? ORDER BY seq`, r.id)
		if err != nil {
			return nil, err
		}
		for segRows.Next() {
			var seg traverse.Segment
			var matID int
			if err := segRows.Scan(&seg.Length, &matID, &seg.RegionID,
				&seg.SurfaceFwd, &seg.SurfaceBwd); err != nil {
				segRows.Close()
				return nil, err
			}
			seg.Material = materials[matID]
			r.track.Segments = append(r.track.Segments, seg)
		}
		if err := segRows.Err(); err != nil {
			return nil, err
		}
		segRows.Close()
	}

	tracks := make([][]traverse.Track2D, maxAzim+1)
	for _, r := range recs {
		tracks[r.track.AzimIndex] = append(tracks[r.track.AzimIndex], r.track)
	}
	return tracks, nil
}

// Run is one recorded sweep.
type Run struct {
	ID        string
	Formation string
	Tracks    int64
	Segments  int64
	Elapsed   time.Duration
}

// RecordRun stores the counters of a completed sweep under a fresh run id
// and returns the id.
func (s *Store) RecordRun(snap monitoring.SweepSnapshot) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec(`INSERT INTO runs (run_id, formation, tracks, segments, elapsed_ns)
		VALUES (?, ?, ?, ?, ?)`,
		id, snap.Mode, snap.Tracks, snap.Segments, snap.Elapsed.Nanoseconds())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Runs lists recorded sweeps, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.Query(`SELECT run_id, formation, tracks, segments, elapsed_ns
		FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ns int64
		if err := rows.Scan(&r.ID, &r.Formation, &r.Tracks, &r.Segments, &ns); err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(ns)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
