package report

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run is a row from the runs table.
type Run struct {
	ID         int64
	StartedAt  int64
	Input      string
	Encoding   string
	Algorithm  string
	Unique     int64
	Repeated   int64
	Empty      int64
	Total      int64
	CSVValid   *bool
	ElapsedSec float64
}

// HistoryDB records finished runs in SQLite.
type HistoryDB struct {
	db *sql.DB
}

// OpenHistoryDB opens (or creates) the SQLite database at path and ensures
// the runs table exists.
func OpenHistoryDB(path string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at  INTEGER NOT NULL,
		input       TEXT NOT NULL,
		encoding    TEXT NOT NULL,
		algorithm   TEXT NOT NULL,
		uniq        INTEGER NOT NULL,
		repeated    INTEGER NOT NULL,
		empty       INTEGER NOT NULL,
		total       INTEGER NOT NULL,
		csv_valid   INTEGER,
		elapsed_sec REAL NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &HistoryDB{db: db}, nil
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Record stores s and returns the new run id.
func (h *HistoryDB) Record(s Summary) (int64, error) {
	var csvValid *bool
	if s.CSV != nil {
		csvValid = &s.CSV.Valid
	}
	started := time.Now().Add(-s.Elapsed).Unix()

	res, err := h.db.Exec(`INSERT INTO runs
		(started_at, input, encoding, algorithm, uniq, repeated, empty, total, csv_valid, elapsed_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		started, s.Input, s.Encoding, s.Algorithm.String(),
		s.Stats.Unique, s.Stats.Repeated, s.Stats.Empty, s.Stats.Total,
		csvValid, s.Elapsed.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (h *HistoryDB) List(limit int) ([]Run, error) {
	q := `SELECT id, started_at, input, encoding, algorithm, uniq, repeated, empty, total,
		csv_valid, elapsed_sec
		FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Input, &r.Encoding, &r.Algorithm,
			&r.Unique, &r.Repeated, &r.Empty, &r.Total, &r.CSVValid, &r.ElapsedSec); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
