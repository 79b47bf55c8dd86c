// Package journal persists a record per processed commit in SQLite. Only
// counts, strategy and timing are stored, never the committed text.
package journal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"imekbd/internal/ime"
)

const schema = `
CREATE TABLE IF NOT EXISTS commits (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	at          TIMESTAMP NOT NULL,
	serial      INTEGER NOT NULL,
	strategy    TEXT NOT NULL,
	chars       INTEGER NOT NULL,
	keys        INTEGER NOT NULL,
	action      TEXT NOT NULL DEFAULT '',
	duration_us INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS commits_at ON commits(at);
`

// Entry is one journaled commit.
type Entry struct {
	ID       int64         `json:"id"`
	At       time.Time     `json:"at"`
	Serial   uint32        `json:"serial"`
	Strategy string        `json:"strategy"`
	Chars    int           `json:"chars"`
	Keys     int           `json:"keys"`
	Action   string        `json:"action,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Journal implements ime.Recorder. Records are written by a background
// goroutine so the event loop never blocks on the database.
type Journal struct {
	log  *slog.Logger
	db   *sql.DB
	ch   chan ime.CommitRecord
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// Open creates or opens the journal database at path.
func Open(path string, log *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=2000")
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	j := &Journal{
		log:  log.With("component", "journal"),
		db:   db,
		ch:   make(chan ime.CommitRecord, 128),
		done: make(chan struct{}),
	}
	go j.writer()
	return j, nil
}

// RecordCommit implements ime.Recorder. A full buffer drops the record
// rather than stalling typing; a record arriving after Close is dropped
// too, since the event loop may still be draining commits during shutdown.
func (j *Journal) RecordCommit(rec ime.CommitRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.ch <- rec:
	default:
		j.log.Warn("journal buffer full, dropping commit record")
	}
}

func (j *Journal) writer() {
	defer close(j.done)
	for rec := range j.ch {
		_, err := j.db.Exec(
			`INSERT INTO commits (at, serial, strategy, chars, keys, action, duration_us)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.At, rec.Serial, rec.Strategy, rec.Chars, rec.Keys, rec.Action,
			rec.Duration.Microseconds(),
		)
		if err != nil {
			j.log.Error("journal insert failed", "error", err)
		}
	}
}

// Count returns the number of journaled commits.
func (j *Journal) Count() (int64, error) {
	var n int64
	err := j.db.QueryRow(`SELECT COUNT(*) FROM commits`).Scan(&n)
	return n, err
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, at, serial, strategy, chars, keys, action, duration_us
		 FROM commits ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var durUS int64
		if err := rows.Scan(&e.ID, &e.At, &e.Serial, &e.Strategy, &e.Chars, &e.Keys, &e.Action, &durUS); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durUS) * time.Microsecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close flushes pending records and closes the database. Safe to call more
// than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	j.mu.Unlock()

	close(j.ch)
	<-j.done
	return j.db.Close()
}
