package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS status_snapshots (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			username         TEXT,
			classname        TEXT,
			ratio            REAL,
			uploaded_bytes   INTEGER,
			downloaded_bytes INTEGER,
			seedbonus        INTEGER,
			wedges           INTEGER,
			donated_today    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_ts ON status_snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS action_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			action    TEXT,
			outcome   TEXT,
			detail    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_action_ts ON action_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS cycle_runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			cycle_date TEXT,
			executed   INTEGER,
			skipped    INTEGER,
			failed     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_ts ON cycle_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordStatus(rec *StatusRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	donated := 0
	if rec.DonatedToday {
		donated = 1
	}
	_, err := r.db.Exec(`INSERT INTO status_snapshots
		(timestamp, username, classname, ratio, uploaded_bytes, downloaded_bytes, seedbonus, wedges, donated_today)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Username, rec.Classname, rec.Ratio,
		rec.UploadedBytes, rec.DownloadedBytes, rec.Seedbonus, rec.Wedges, donated,
	)
	return err
}

func (r *SQLiteRecorder) RecordAction(evt *ActionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO action_events
		(timestamp, action, outcome, detail)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.Action, evt.Outcome, evt.Detail,
	)
	return err
}

func (r *SQLiteRecorder) RecordCycle(run *CycleRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycle_runs
		(timestamp, cycle_date, executed, skipped, failed)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), run.CycleDate, run.Executed, run.Skipped, run.Failed,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
