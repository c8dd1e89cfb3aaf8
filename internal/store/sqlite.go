package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	csv_path    TEXT NOT NULL,
	raster_path TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	stats       TEXT,
	error       TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS records (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	seq              INTEGER NOT NULL,
	occurrence_id    TEXT NOT NULL,
	family           TEXT NOT NULL,
	genus            TEXT NOT NULL,
	species          TEXT NOT NULL,
	individual_count INTEGER,
	latitude         REAL NOT NULL,
	longitude        REAL NOT NULL,
	elevation        REAL NOT NULL,
	event_date       TEXT NOT NULL,
	month            INTEGER NOT NULL,
	year             INTEGER NOT NULL,
	institution_code TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_records_species ON records(run_id, species);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, csvPath, rasterPath string) (*model.Run, error) {
	run := &model.Run{
		ID:         uuid.New().String(),
		CSVPath:    csvPath,
		RasterPath: rasterPath,
		Status:     model.RunStatusRunning,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, csv_path, raster_path, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.CSVPath, run.RasterPath, run.Status, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, updated_at = ? WHERE id = ?`,
		model.RunStatusComplete, string(statsJSON), time.Now().UTC(), runID)
	return eris.Wrap(err, "sqlite: complete run")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		model.RunStatusFailed, msg, time.Now().UTC(), runID)
	return eris.Wrap(err, "sqlite: fail run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, csv_path, raster_path, status, stats, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, csv_path, raster_path, status, stats, error, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) InsertRecords(ctx context.Context, runID string, records []model.EnrichedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert records")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (
			run_id, seq, occurrence_id, family, genus, species, individual_count,
			latitude, longitude, elevation, event_date, month, year, institution_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert records")
	}
	defer stmt.Close()

	for i, rec := range records {
		var count any
		if rec.IndividualCount != nil {
			count = *rec.IndividualCount
		}
		if _, err := stmt.ExecContext(ctx,
			runID, i, rec.ID, rec.Family, rec.Genus, rec.Species, count,
			rec.Latitude, rec.Longitude, rec.Elevation,
			rec.EventDate, rec.Month, rec.Year, rec.InstitutionCode,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert records")
}

func (s *SQLiteStore) ListRecords(ctx context.Context, runID string, filter RecordFilter) ([]model.EnrichedRecord, error) {
	query := `
		SELECT occurrence_id, family, genus, species, individual_count,
		       latitude, longitude, elevation, event_date, month, year, institution_code
		FROM records WHERE run_id = ?`
	args := []any{runID}

	if filter.Species != "" {
		query += ` AND species = ?`
		args = append(args, filter.Species)
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var records []model.EnrichedRecord
	for rows.Next() {
		var rec model.EnrichedRecord
		var count sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.Family, &rec.Genus, &rec.Species, &count,
			&rec.Latitude, &rec.Longitude, &rec.Elevation,
			&rec.EventDate, &rec.Month, &rec.Year, &rec.InstitutionCode,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if count.Valid {
			c := int(count.Int64)
			rec.IndividualCount = &c
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var stats, errMsg sql.NullString
	if err := row.Scan(
		&run.ID, &run.CSVPath, &run.RasterPath, &run.Status,
		&stats, &errMsg, &run.CreatedAt, &run.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if stats.Valid && stats.String != "" {
		var rs model.RunStats
		if err := json.Unmarshal([]byte(stats.String), &rs); err != nil {
			return nil, eris.Wrap(err, "unmarshal stats")
		}
		run.Stats = &rs
	}
	run.Error = errMsg.String
	return &run, nil
}
