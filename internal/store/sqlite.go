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

	"github.com/sells-group/statute-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS laws (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	article_count    INTEGER NOT NULL DEFAULT 0,
	amended_count    INTEGER NOT NULL DEFAULT 0,
	canceled_count   INTEGER NOT NULL DEFAULT 0,
	has_amendments   INTEGER NOT NULL DEFAULT 0,
	issue_date_hijri TEXT NOT NULL DEFAULT '',
	source_url       TEXT NOT NULL DEFAULT '',
	document         TEXT NOT NULL,
	extracted_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id          TEXT PRIMARY KEY,
	scope       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	extracted   INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_laws_status ON laws(status);
CREATE INDEX IF NOT EXISTS idx_laws_name ON laws(name);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLaw(ctx context.Context, law *model.Law) error {
	if law == nil || law.ID == "" {
		return eris.New("sqlite: save law: missing law id")
	}
	doc, err := json.Marshal(law)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal law")
	}
	sum := Summarize(law)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO laws (id, name, status, article_count, amended_count, canceled_count,
			has_amendments, issue_date_hijri, source_url, document, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			article_count = excluded.article_count,
			amended_count = excluded.amended_count,
			canceled_count = excluded.canceled_count,
			has_amendments = excluded.has_amendments,
			issue_date_hijri = excluded.issue_date_hijri,
			source_url = excluded.source_url,
			document = excluded.document,
			extracted_at = excluded.extracted_at`,
		sum.ID, sum.Name, sum.Status, sum.ArticleCount, sum.AmendedCount, sum.CanceledCount,
		sum.HasAmendments, sum.IssueDateHijri, sum.SourceURL, string(doc), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save law %s", law.ID)
}

func (s *SQLiteStore) GetLaw(ctx context.Context, id string) (*model.Law, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM laws WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: law %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get law %s", id)
	}
	var law model.Law
	if err := json.Unmarshal([]byte(doc), &law); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal law %s", id)
	}
	return &law, nil
}

func (s *SQLiteStore) HasLaw(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM laws WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: has law %s", id)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListLaws(ctx context.Context, filter LawFilter) ([]LawSummary, error) {
	query := `SELECT id, name, status, article_count, amended_count, canceled_count,
		has_amendments, issue_date_hijri, source_url, extracted_at FROM laws WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.AmendedOnly {
		query += ` AND has_amendments = 1`
	}
	if filter.NameLike != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+filter.NameLike+"%")
	}
	query += ` ORDER BY name, id LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list laws")
	}
	defer rows.Close()

	var out []LawSummary
	for rows.Next() {
		var ls LawSummary
		if err := rows.Scan(&ls.ID, &ls.Name, &ls.Status, &ls.ArticleCount, &ls.AmendedCount,
			&ls.CanceledCount, &ls.HasAmendments, &ls.IssueDateHijri, &ls.SourceURL, &ls.ExtractedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan law summary")
		}
		out = append(out, ls)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list laws iterate")
}

func (s *SQLiteStore) StartRun(ctx context.Context, scope string) (*SyncRun, error) {
	run := &SyncRun{
		ID:        uuid.New().String(),
		Scope:     scope,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, scope, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Scope, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *SyncRun) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, extracted = ?, skipped = ?, failed = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Extracted, run.Skipped, run.Failed, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", run.ID)
	}
	if err := checkRowsAffected(res, run.ID); err != nil {
		return err
	}
	run.FinishedAt = &now
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scope, status, extracted, skipped, failed, started_at, finished_at
		 FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []SyncRun
	for rows.Next() {
		var r SyncRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Scope, &r.Status, &r.Extracted, &r.Skipped, &r.Failed,
			&r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: run %s", id)
	}
	return nil
}
