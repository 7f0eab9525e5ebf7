package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-correlation-report/internal/model"
)

var ErrRunNotFound = errors.New("run not found")

// Store keeps runs and their correlation tables in SQLite
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	spec TEXT,
	target TEXT,
	source TEXT,
	status TEXT,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS run_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT,
	error_message TEXT,
	created_at DATETIME
);
CREATE TABLE IF NOT EXISTS result_tables (
	run_id TEXT,
	position INTEGER,
	sheet TEXT,
	target TEXT,
	PRIMARY KEY (run_id, position)
);
CREATE TABLE IF NOT EXISTS correlation_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT,
	table_position INTEGER,
	sheet TEXT,
	position INTEGER,
	variable TEXT,
	correlation REAL,
	p_value REAL,
	n INTEGER,
	significant INTEGER,
	error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_correlation_results_run ON correlation_results(run_id);
`

// Open opens (creating if needed) the database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection keeps writes ordered
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a new report run
func (s *Store) SaveRun(runID string, spec model.ReportSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO runs (id, spec, target, source, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, string(specJSON), spec.Target, spec.Source.Path, model.StatusPending, now, now)
	return err
}

// UpdateRunStatus updates run status
func (s *Store) UpdateRunStatus(runID string, status string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// SaveRunError records an error for a run
func (s *Store) SaveRunError(runID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

// GetRunErrors returns the recorded error messages of a run, oldest first
func (s *Store) GetRunErrors(runID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT error_message FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SaveResults stores every table of a run, empty ones included, in one
// transaction. Failed rows keep NULL correlation and p-value.
func (s *Store) SaveResults(runID string, tables []model.GroupTable) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// tables saved by an earlier call keep their positions
	var offset int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM result_tables WHERE run_id = ?`, runID).Scan(&offset); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO correlation_results
		(run_id, table_position, sheet, position, variable, correlation, p_value, n, significant, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for ti, t := range tables {
		pos := offset + ti
		if _, err := tx.Exec(`INSERT INTO result_tables (run_id, position, sheet, target) VALUES (?, ?, ?, ?)`,
			runID, pos, t.Sheet, t.Target); err != nil {
			return fmt.Errorf("failed to save table %s: %w", t.Sheet, err)
		}
		for i, r := range t.Results {
			var corr, p sql.NullFloat64
			var msg sql.NullString
			if r.Failed() {
				msg = sql.NullString{String: r.Err, Valid: true}
			} else {
				corr = sql.NullFloat64{Float64: r.Correlation, Valid: true}
				p = sql.NullFloat64{Float64: r.PValue, Valid: true}
			}
			if _, err := stmt.Exec(runID, pos, t.Sheet, i, r.Variable, corr, p, r.N, r.Significant, msg); err != nil {
				return fmt.Errorf("failed to save result %s/%s: %w", t.Sheet, r.Variable, err)
			}
		}
	}
	return tx.Commit()
}

// GetResults loads the tables of a run in the order they were saved
func (s *Store) GetResults(runID string) ([]model.GroupTable, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	tables, index, err := s.getTables(runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT table_position, variable, correlation, p_value, n, significant, error_message
		FROM correlation_results WHERE run_id = ? ORDER BY table_position, position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pos         int
			variable    string
			corr, p     sql.NullFloat64
			n           int
			significant bool
			msg         sql.NullString
		)
		if err := rows.Scan(&pos, &variable, &corr, &p, &n, &significant, &msg); err != nil {
			return nil, err
		}
		i, ok := index[pos]
		if !ok {
			return nil, fmt.Errorf("result %s references unknown table %d", variable, pos)
		}
		tables[i].Results = append(tables[i].Results, model.CorrelationResult{
			Variable:    variable,
			Correlation: corr.Float64,
			PValue:      p.Float64,
			N:           n,
			Significant: significant,
			Err:         msg.String,
		})
	}
	return tables, rows.Err()
}

func (s *Store) getTables(runID string) ([]model.GroupTable, map[int]int, error) {
	rows, err := s.db.Query(`SELECT position, sheet, target FROM result_tables WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var tables []model.GroupTable
	index := make(map[int]int)
	for rows.Next() {
		var (
			pos int
			t   model.GroupTable
		)
		if err := rows.Scan(&pos, &t.Sheet, &t.Target); err != nil {
			return nil, nil, err
		}
		index[pos] = len(tables)
		tables = append(tables, t)
	}
	return tables, index, rows.Err()
}

// ListRuns returns all runs, newest first
func (s *Store) ListRuns() ([]model.RunInfo, error) {
	rows, err := s.db.Query(`SELECT id, status, target, source, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunInfo
	for rows.Next() {
		var r model.RunInfo
		if err := rows.Scan(&r.ID, &r.Status, &r.Target, &r.Source, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run with its spec
func (s *Store) GetRun(runID string) (model.RunInfo, model.ReportSpec, error) {
	var (
		info     model.RunInfo
		specJSON string
		spec     model.ReportSpec
	)
	err := s.db.QueryRow(`SELECT id, spec, status, target, source, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&info.ID, &specJSON, &info.Status, &info.Target, &info.Source, &info.CreatedAt, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return info, spec, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return info, spec, err
	}
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return info, spec, err
	}
	return info, spec, nil
}
