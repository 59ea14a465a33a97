// Package store persists parsed laws and sync runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/statute-cli/internal/config"
	"github.com/sells-group/statute-cli/internal/model"
)

// ErrNotFound is returned when a law or run does not exist.
var ErrNotFound = eris.New("store: not found")

// LawSummary is the index row kept next to each stored law document.
type LawSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	ArticleCount   int       `json:"article_count"`
	AmendedCount   int       `json:"amended_count"`
	CanceledCount  int       `json:"canceled_count"`
	HasAmendments  bool      `json:"has_amendments"`
	IssueDateHijri string    `json:"issue_date_hijri"`
	SourceURL      string    `json:"source_url,omitempty"`
	ExtractedAt    time.Time `json:"extracted_at"`
}

// Summarize derives the index row of a law.
func Summarize(law *model.Law) LawSummary {
	st := law.Stats()
	return LawSummary{
		ID:             law.ID,
		Name:           law.Name,
		Status:         law.Status,
		ArticleCount:   law.TotalArticles,
		AmendedCount:   st.Amended,
		CanceledCount:  st.Canceled,
		HasAmendments:  st.Amended > 0,
		IssueDateHijri: law.IssueDateHijri,
		SourceURL:      law.SourceURL,
	}
}

// LawFilter specifies criteria for listing laws.
type LawFilter struct {
	Status      string `json:"status,omitempty"`
	AmendedOnly bool   `json:"amended_only,omitempty"`
	NameLike    string `json:"name_like,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// DefaultListLimit caps ListLaws when the filter sets no limit.
const DefaultListLimit = 100

func (f LawFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// RunStatus is the state of a sync run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// SyncRun records one folder sync.
type SyncRun struct {
	ID         string     `json:"id"`
	Scope      string     `json:"scope"`
	Status     RunStatus  `json:"status"`
	Extracted  int        `json:"extracted"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Store defines the persistence interface for the law library.
type Store interface {
	// Laws
	SaveLaw(ctx context.Context, law *model.Law) error
	GetLaw(ctx context.Context, id string) (*model.Law, error)
	HasLaw(ctx context.Context, id string) (bool, error)
	ListLaws(ctx context.Context, filter LawFilter) ([]LawSummary, error)

	// Sync runs
	StartRun(ctx context.Context, scope string) (*SyncRun, error)
	FinishRun(ctx context.Context, run *SyncRun) error
	ListRuns(ctx context.Context, limit int) ([]SyncRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver and runs its migration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
