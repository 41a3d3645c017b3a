package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/codewithboateng/trendline/internal/model"
)

// ErrNotFound is returned when a build or result does not exist.
var ErrNotFound = errors.New("not found")

// DB is the concrete storage backed by SQLite.
type DB struct {
	conn *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite DB at path.
func OpenSQLite(path string) (*DB, error) {
	// Pragmas via DSN keep it portable with the modernc driver.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	c, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{conn: c}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// CreateSchema ensures tables exist.
func (db *DB) CreateSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS builds (
  job        TEXT NOT NULL,
  number     INTEGER NOT NULL,
  status     TEXT,              -- NULL while the build is running
  started_at TEXT NOT NULL,     -- RFC3339Nano
  PRIMARY KEY (job, number)
);

CREATE TABLE IF NOT EXISTS results (
  job           TEXT NOT NULL,
  number        INTEGER NOT NULL,
  tool          TEXT NOT NULL,
  plugin_status TEXT NOT NULL,
  successful    INTEGER NOT NULL,
  health        INTEGER NOT NULL DEFAULT 0,
  issue_count   INTEGER NOT NULL,
  issues_json   TEXT NOT NULL,
  created_at    TEXT NOT NULL,
  PRIMARY KEY (job, number, tool),
  FOREIGN KEY (job, number) REFERENCES builds(job, number) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_results_tool ON results(tool);

CREATE TABLE IF NOT EXISTS exclusions (
  id          TEXT PRIMARY KEY,
  tool        TEXT,              -- optional exact match; NULL = any
  category    TEXT,              -- optional exact match; NULL = any
  pattern_sub TEXT,              -- optional substring to match message/file
  reason      TEXT NOT NULL,
  expires_at  TEXT NOT NULL,     -- RFC3339Nano
  created_by  TEXT NOT NULL,
  created_at  TEXT NOT NULL,
  revoked_at  TEXT               -- NULL = active
);

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT UNIQUE NOT NULL,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'viewer',
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  expires_at TEXT NOT NULL,
  created_at TEXT NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS audit (
  id TEXT PRIMARY KEY,
  ts TEXT NOT NULL,
  username TEXT,
  action TEXT NOT NULL,
  resource TEXT,
  meta_json TEXT
);
`)
	return err
}

// BuildRow is a persisted build record.
type BuildRow struct {
	Job       string    `json:"job"`
	Number    int       `json:"number"`
	Status    string    `json:"status,omitempty"` // empty while running
	StartedAt time.Time `json:"started_at"`
}

// SaveBuild records a build that has started. Saving an existing build is an
// upsert of its start time; the status is untouched.
func (db *DB) SaveBuild(job string, number int, startedAt time.Time) error {
	_, err := db.conn.Exec(`
INSERT INTO builds (job, number, status, started_at) VALUES (?, ?, NULL, ?)
ON CONFLICT(job, number) DO UPDATE SET started_at=excluded.started_at`,
		job, number, startedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// FinishBuild sets the terminal status of a build.
func (db *DB) FinishBuild(job string, number int, status model.Status) error {
	res, err := db.conn.Exec(`UPDATE builds SET status=? WHERE job=? AND number=?`,
		status.String(), job, number)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadBuild returns one build record.
func (db *DB) LoadBuild(job string, number int) (BuildRow, error) {
	row := db.conn.QueryRow(`SELECT job, number, status, started_at FROM builds WHERE job=? AND number=?`,
		job, number)
	return scanBuild(row)
}

// LatestBuild returns the newest build of a job.
func (db *DB) LatestBuild(job string) (BuildRow, error) {
	row := db.conn.QueryRow(`SELECT job, number, status, started_at FROM builds WHERE job=? ORDER BY number DESC LIMIT 1`,
		job)
	return scanBuild(row)
}

// PreviousNumber returns the number of the build immediately preceding
// (job, number), or ok=false at the head of the chain.
func (db *DB) PreviousNumber(job string, number int) (int, bool, error) {
	var prev sql.NullInt64
	err := db.conn.QueryRow(`SELECT MAX(number) FROM builds WHERE job=? AND number<?`, job, number).Scan(&prev)
	if err != nil {
		return 0, false, err
	}
	if !prev.Valid {
		return 0, false, nil
	}
	return int(prev.Int64), true, nil
}

// ListBuilds returns builds of a job, newest first.
func (db *DB) ListBuilds(job string, limit, offset int) ([]BuildRow, error) {
	rows, err := db.conn.Query(`
SELECT job, number, status, started_at FROM builds
WHERE job=? ORDER BY number DESC LIMIT ? OFFSET ?`, job, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BuildRow
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (BuildRow, error) {
	var b BuildRow
	var status sql.NullString
	var started string
	if err := row.Scan(&b.Job, &b.Number, &status, &started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BuildRow{}, ErrNotFound
		}
		return BuildRow{}, err
	}
	if status.Valid {
		b.Status = status.String
	}
	if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
		b.StartedAt = t
	}
	return b, nil
}

// ResultRow is a persisted analysis result.
type ResultRow struct {
	Job          string        `json:"job"`
	Number       int           `json:"number"`
	Tool         string        `json:"tool"`
	PluginStatus string        `json:"plugin_status"`
	Successful   bool          `json:"successful"`
	Health       int           `json:"health"`
	Issues       []model.Issue `json:"issues"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SaveResult upserts the result a tool attached to a build.
func (db *DB) SaveResult(r *ResultRow) error {
	b, err := json.Marshal(r.Issues)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = db.conn.Exec(`
INSERT INTO results (job, number, tool, plugin_status, successful, health, issue_count, issues_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(job, number, tool) DO UPDATE SET
  plugin_status=excluded.plugin_status, successful=excluded.successful,
  health=excluded.health, issue_count=excluded.issue_count, issues_json=excluded.issues_json`,
		r.Job, r.Number, r.Tool, r.PluginStatus, boolInt(r.Successful), r.Health, len(r.Issues), string(b), now)
	return err
}

// LoadResult returns the result a tool attached to a build.
func (db *DB) LoadResult(job string, number int, tool string) (ResultRow, error) {
	row := db.conn.QueryRow(`
SELECT job, number, tool, plugin_status, successful, health, issues_json, created_at
FROM results WHERE job=? AND number=? AND tool=?`, job, number, tool)

	var r ResultRow
	var successful int
	var issues, created string
	if err := row.Scan(&r.Job, &r.Number, &r.Tool, &r.PluginStatus, &successful, &r.Health, &issues, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResultRow{}, ErrNotFound
		}
		return ResultRow{}, err
	}
	r.Successful = successful != 0
	if err := json.Unmarshal([]byte(issues), &r.Issues); err != nil {
		return ResultRow{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		r.CreatedAt = t
	}
	return r, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
