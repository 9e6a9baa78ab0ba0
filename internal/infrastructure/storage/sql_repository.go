package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const (
	rowBatch = 200
	// fixed width so that text order is time order
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS preprocess_runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		columns TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		rows_in INTEGER NOT NULL,
		rows_out INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stage_metrics (
		run_id TEXT NOT NULL REFERENCES preprocess_runs(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		rows_in INTEGER NOT NULL,
		rows_out INTEGER NOT NULL,
		duration_us BIGINT NOT NULL,
		counters TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS cleaned_rows (
		run_id TEXT NOT NULL REFERENCES preprocess_runs(id),
		row_index INTEGER NOT NULL,
		cells TEXT NOT NULL,
		PRIMARY KEY (run_id, row_index)
	)`,
}

// Open connects to the database behind driver and dsn. An SQLite handle uses a single connection,
// matching SQLite's single writer.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// SQLRepository persists preprocessing runs, their stage metrics and cleaned corpora.
type SQLRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.RunRepository = (*SQLRepository)(nil)

// NewSQLRepository wires a sql.DB opened with driver; the driver picks the placeholder style.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(format)}
}

// Migrate creates the tables if they do not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveRun stores the run, its stage metrics and the cleaned corpus in one transaction.
func (r *SQLRepository) SaveRun(ctx context.Context, run domain.Run, cleaned *corpus.Corpus) (err error) {
	columns, err := json.Marshal(cleaned.Columns())
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := r.sb.Insert("preprocess_runs").
		Columns("id", "dataset", "columns", "started_at", "finished_at", "rows_in", "rows_out").
		Values(run.ID, run.Dataset, string(columns), formatTime(run.StartedAt), formatTime(run.FinishedAt), run.RowsIn, run.RowsOut).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Stages) > 0 {
		ins := r.sb.Insert("stage_metrics").
			Columns("run_id", "position", "name", "rows_in", "rows_out", "duration_us", "counters")
		for _, st := range run.Stages {
			counters, mErr := json.Marshal(st.Counters)
			if mErr != nil {
				return fmt.Errorf("marshal counters: %w", mErr)
			}
			ins = ins.Values(run.ID, st.Position, st.Name, st.RowsIn, st.RowsOut, st.Duration.Microseconds(), string(counters))
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return fmt.Errorf("build metrics insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert metrics: %w", err)
		}
	}

	for start := 0; start < cleaned.Len(); start += rowBatch {
		ins := r.sb.Insert("cleaned_rows").Columns("run_id", "row_index", "cells")
		for i := start; i < min(start+rowBatch, cleaned.Len()); i++ {
			cells, mErr := json.Marshal(encodeRow(cleaned.Row(i)))
			if mErr != nil {
				return fmt.Errorf("marshal row %d: %w", i, mErr)
			}
			ins = ins.Values(run.ID, i, string(cells))
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return fmt.Errorf("build rows insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadCorpus rebuilds the cleaned corpus of a run.
func (r *SQLRepository) LoadCorpus(ctx context.Context, runID string) (*corpus.Corpus, error) {
	query, args, err := r.sb.Select("columns").From("preprocess_runs").Where(sq.Eq{"id": runID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build run select: %w", err)
	}

	var rawColumns string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&rawColumns); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("query run: %w", err)
	}
	var columns []string
	if err := json.Unmarshal([]byte(rawColumns), &columns); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	out, err := corpus.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("rebuild corpus: %w", err)
	}

	query, args, err = r.sb.Select("cells").From("cleaned_rows").
		Where(sq.Eq{"run_id": runID}).OrderBy("row_index").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rows select: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var cells []*string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		if err := out.AppendRow(decodeRow(cells)...); err != nil {
			return nil, fmt.Errorf("rebuild row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Runs returns the most recent runs first, with their stage metrics.
func (r *SQLRepository) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	sel := r.sb.Select("id", "dataset", "started_at", "finished_at", "rows_in", "rows_out").
		From("preprocess_runs").OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var (
		runs []domain.Run
		ids  []string
		pos  = map[string]int{}
	)
	for rows.Next() {
		var (
			run               domain.Run
			started, finished string
		)
		if err := rows.Scan(&run.ID, &run.Dataset, &started, &finished, &run.RowsIn, &run.RowsOut); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		pos[run.ID] = len(runs)
		ids = append(ids, run.ID)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close rows: %w", err)
	}
	if len(ids) == 0 {
		return runs, nil
	}

	query, args, err = r.sb.Select("run_id", "position", "name", "rows_in", "rows_out", "duration_us", "counters").
		From("stage_metrics").Where(sq.Eq{"run_id": ids}).OrderBy("run_id", "position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build metrics select: %w", err)
	}
	mrows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			runID, counters string
			st              domain.StageResult
			micros          int64
		)
		if err := mrows.Scan(&runID, &st.Position, &st.Name, &st.RowsIn, &st.RowsOut, &micros, &counters); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		st.Duration = time.Duration(micros) * time.Microsecond
		if err := json.Unmarshal([]byte(counters), &st.Counters); err != nil {
			return nil, fmt.Errorf("decode counters: %w", err)
		}
		i := pos[runID]
		runs[i].Stages = append(runs[i].Stages, st)
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("metrics iteration: %w", err)
	}
	return runs, nil
}

func encodeRow(cells []corpus.Cell) []*string {
	out := make([]*string, len(cells))
	for i, c := range cells {
		if c.Valid {
			text := c.Text
			out[i] = &text
		}
	}
	return out
}

func decodeRow(cells []*string) []corpus.Cell {
	out := make([]corpus.Cell, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = corpus.String(*c)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
