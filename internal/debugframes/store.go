// Package debugframes persists analyzed camera frames for offline inspection
// and keeps a SQLite index of what was written.
package debugframes

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Mode selects how much debug output the service produces.
type Mode string

const (
	ModeDebug       Mode = "debug"         // verbose logging + frame saving
	ModeDebugNoSave Mode = "debug_no_save" // verbose logging, no frames on disk
	ModeNonDebug    Mode = "non_debug"     // minimal logging
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDebug, ModeDebugNoSave, ModeNonDebug:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown debug mode %q (want debug, debug_no_save or non_debug)", s)
}

// Store writes debug frames under a directory and indexes them in a local
// SQLite database. Saving only happens in ModeDebug; in the other modes every
// write is a no-op, so callers never need to branch on the mode themselves.
//
// The index covers the current run only. It is a debugging aid, not session
// history.
type Store struct {
	mode Mode
	dir  string
	db   *sql.DB
	log  *slog.Logger
}

// Open creates the frame directory and index database when mode saves
// frames; otherwise it returns a disabled store.
func Open(mode Mode, dir string, log *slog.Logger) (*Store, error) {
	s := &Store{mode: mode, dir: dir, log: log}
	if mode != ModeDebug {
		return s, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating debug frame dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "frames.db"))
	if err != nil {
		return nil, fmt.Errorf("opening frame index: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS debug_frames (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		frame_no   INTEGER NOT NULL,
		path       TEXT NOT NULL,
		diff       REAL NOT NULL,
		position   TEXT NOT NULL,
		reps       INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating frame index table: %w", err)
	}

	s.db = db
	return s, nil
}

// Enabled reports whether frames are written to disk.
func (s *Store) Enabled() bool { return s.mode == ModeDebug }

// Verbose reports whether per-frame logging and debug response blocks are on.
func (s *Store) Verbose() bool { return s.mode != ModeNonDebug }

// Mode returns the configured mode.
func (s *Store) Mode() Mode { return s.mode }

// Dir returns the frame directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the frame bytes and records them in the index. A disabled
// store is a no-op.
func (s *Store) Save(frame []byte, frameNo int, diff float64, position string, reps int) error {
	if !s.Enabled() {
		return nil
	}

	name := fmt.Sprintf("frame_%06d_diff_%.1f_reps_%d_%d.jpg", frameNo, diff, reps, time.Now().Unix())
	if err := os.WriteFile(filepath.Join(s.dir, name), frame, 0o644); err != nil {
		return fmt.Errorf("writing debug frame: %w", err)
	}

	_, err := s.db.Exec(
		`INSERT INTO debug_frames (frame_no, path, diff, position, reps) VALUES (?, ?, ?, ?, ?)`,
		frameNo, name, diff, position, reps,
	)
	if err != nil {
		return fmt.Errorf("indexing debug frame: %w", err)
	}

	s.log.Info("debug frame saved", "frame", frameNo, "file", name)
	return nil
}

// Count returns the number of indexed frames. Zero for a disabled store.
func (s *Store) Count() (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM debug_frames`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting debug frames: %w", err)
	}
	return n, nil
}

// Latest returns the file names of the n most recently indexed frames,
// newest first. Empty for a disabled store.
func (s *Store) Latest(n int) ([]string, error) {
	if !s.Enabled() {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT path FROM debug_frames ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying debug frames: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		names = append(names, p)
	}
	return names, rows.Err()
}

// Close releases the index database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
