package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/statute-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
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
CREATE TABLE IF NOT EXISTS laws (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	article_count    INTEGER NOT NULL DEFAULT 0,
	amended_count    INTEGER NOT NULL DEFAULT 0,
	canceled_count   INTEGER NOT NULL DEFAULT 0,
	has_amendments   BOOLEAN NOT NULL DEFAULT false,
	issue_date_hijri TEXT NOT NULL DEFAULT '',
	source_url       TEXT NOT NULL DEFAULT '',
	document         JSONB NOT NULL,
	extracted_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	scope       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	extracted   INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_laws_status ON laws(status);
CREATE INDEX IF NOT EXISTS idx_laws_name ON laws(name);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
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

func (s *PostgresStore) SaveLaw(ctx context.Context, law *model.Law) error {
	if law == nil || law.ID == "" {
		return eris.New("postgres: save law: missing law id")
	}
	doc, err := json.Marshal(law)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal law")
	}
	sum := Summarize(law)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO laws (id, name, status, article_count, amended_count, canceled_count,
			has_amendments, issue_date_hijri, source_url, document, extracted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			article_count = EXCLUDED.article_count,
			amended_count = EXCLUDED.amended_count,
			canceled_count = EXCLUDED.canceled_count,
			has_amendments = EXCLUDED.has_amendments,
			issue_date_hijri = EXCLUDED.issue_date_hijri,
			source_url = EXCLUDED.source_url,
			document = EXCLUDED.document,
			extracted_at = EXCLUDED.extracted_at`,
		sum.ID, sum.Name, sum.Status, sum.ArticleCount, sum.AmendedCount, sum.CanceledCount,
		sum.HasAmendments, sum.IssueDateHijri, sum.SourceURL, doc, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save law %s", law.ID)
}

func (s *PostgresStore) GetLaw(ctx context.Context, id string) (*model.Law, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM laws WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: law %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get law %s", id)
	}
	var law model.Law
	if err := json.Unmarshal(doc, &law); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal law %s", id)
	}
	return &law, nil
}

func (s *PostgresStore) HasLaw(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM laws WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: has law %s", id)
	}
	return ok, nil
}

func (s *PostgresStore) ListLaws(ctx context.Context, filter LawFilter) ([]LawSummary, error) {
	query := `SELECT id, name, status, article_count, amended_count, canceled_count,
		has_amendments, issue_date_hijri, source_url, extracted_at FROM laws WHERE 1=1`
	var args []any
	argN := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argN)
		args = append(args, filter.Status)
		argN++
	}
	if filter.AmendedOnly {
		query += ` AND has_amendments`
	}
	if filter.NameLike != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, argN)
		args = append(args, "%"+filter.NameLike+"%")
		argN++
	}
	query += fmt.Sprintf(` ORDER BY name, id LIMIT $%d`, argN)
	args = append(args, filter.limit())
	argN++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argN)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list laws")
	}
	defer rows.Close()

	var out []LawSummary
	for rows.Next() {
		var ls LawSummary
		if err := rows.Scan(&ls.ID, &ls.Name, &ls.Status, &ls.ArticleCount, &ls.AmendedCount,
			&ls.CanceledCount, &ls.HasAmendments, &ls.IssueDateHijri, &ls.SourceURL, &ls.ExtractedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan law summary")
		}
		out = append(out, ls)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list laws iterate")
}

func (s *PostgresStore) StartRun(ctx context.Context, scope string) (*SyncRun, error) {
	run := &SyncRun{
		ID:        uuid.New().String(),
		Scope:     scope,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_runs (id, scope, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Scope, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *SyncRun) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE sync_runs SET status = $1, extracted = $2, skipped = $3, failed = $4, finished_at = $5 WHERE id = $6`,
		string(run.Status), run.Extracted, run.Skipped, run.Failed, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", run.ID)
	}
	run.FinishedAt = &now
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, scope, status, extracted, skipped, failed, started_at, finished_at
		 FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []SyncRun
	for rows.Next() {
		var r SyncRun
		var status string
		if err := rows.Scan(&r.ID, &r.Scope, &status, &r.Extracted, &r.Skipped, &r.Failed,
			&r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = RunStatus(status)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
