package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/SoleneDerville/occurrence-atlas/internal/db"
	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	csv_path    TEXT NOT NULL,
	raster_path TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	stats       JSONB,
	error       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS records (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	seq              INTEGER NOT NULL,
	occurrence_id    TEXT NOT NULL,
	family           TEXT NOT NULL,
	genus            TEXT NOT NULL,
	species          TEXT NOT NULL,
	individual_count INTEGER,
	latitude         DOUBLE PRECISION NOT NULL,
	longitude        DOUBLE PRECISION NOT NULL,
	elevation        DOUBLE PRECISION NOT NULL,
	event_date       TEXT NOT NULL,
	month            INTEGER NOT NULL,
	year             INTEGER NOT NULL,
	institution_code TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_records_species ON records(run_id, species);
`

// recordColumns is the COPY column order for bulk record inserts.
var recordColumns = []string{
	"run_id", "seq", "occurrence_id", "family", "genus", "species",
	"individual_count", "latitude", "longitude", "elevation",
	"event_date", "month", "year", "institution_code",
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, csvPath, rasterPath string) (*model.Run, error) {
	run := &model.Run{
		ID:         uuid.New().String(),
		CSVPath:    csvPath,
		RasterPath: rasterPath,
		Status:     model.RunStatusRunning,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, csv_path, raster_path, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.CSVPath, run.RasterPath, run.Status, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
		model.RunStatusComplete, statsJSON, time.Now().UTC(), runID)
	return eris.Wrap(err, "postgres: complete run")
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		model.RunStatusFailed, msg, time.Now().UTC(), runID)
	return eris.Wrap(err, "postgres: fail run")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, csv_path, raster_path, status, stats, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID)

	run, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, csv_path, raster_path, status, stats, error, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) InsertRecords(ctx context.Context, runID string, records []model.EnrichedRecord) error {
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		var count any
		if rec.IndividualCount != nil {
			count = *rec.IndividualCount
		}
		rows = append(rows, []any{
			runID, i, rec.ID, rec.Family, rec.Genus, rec.Species, count,
			rec.Latitude, rec.Longitude, rec.Elevation,
			rec.EventDate, rec.Month, rec.Year, rec.InstitutionCode,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "records", recordColumns, rows)
	return eris.Wrap(err, "postgres: insert records")
}

func (s *PostgresStore) ListRecords(ctx context.Context, runID string, filter RecordFilter) ([]model.EnrichedRecord, error) {
	query := `
		SELECT occurrence_id, family, genus, species, individual_count,
		       latitude, longitude, elevation, event_date, month, year, institution_code
		FROM records WHERE run_id = $1`
	args := []any{runID}

	if filter.Species != "" {
		query += ` AND species = $2`
		args = append(args, filter.Species)
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.EnrichedRecord
	for rows.Next() {
		var rec model.EnrichedRecord
		var count *int
		if err := rows.Scan(
			&rec.ID, &rec.Family, &rec.Genus, &rec.Species, &count,
			&rec.Latitude, &rec.Longitude, &rec.Elevation,
			&rec.EventDate, &rec.Month, &rec.Year, &rec.InstitutionCode,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec.IndividualCount = count
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var run model.Run
	var stats []byte
	var errMsg *string
	if err := row.Scan(
		&run.ID, &run.CSVPath, &run.RasterPath, &run.Status,
		&stats, &errMsg, &run.CreatedAt, &run.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(stats) > 0 {
		var rs model.RunStats
		if err := json.Unmarshal(stats, &rs); err != nil {
			return nil, eris.Wrap(err, "unmarshal stats")
		}
		run.Stats = &rs
	}
	if errMsg != nil {
		run.Error = *errMsg
	}
	return &run, nil
}
