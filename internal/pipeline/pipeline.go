// Package pipeline fetches statute pages, parses them and stores the result.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/statute-cli/internal/audit"
	"github.com/sells-group/statute-cli/internal/fetcher"
	"github.com/sells-group/statute-cli/internal/lawparse"
	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/store"
)

// Source is the subset of the statute site client used by the pipeline.
type Source interface {
	LawPage(ctx context.Context, id string) ([]byte, error)
	LawURL(id string) string
	FolderLaws(ctx context.Context, folder int) ([]fetcher.LawRef, error)
	DownloadPDF(ctx context.Context, url, path string) (int64, error)
}

// Options configures a Pipeline.
type Options struct {
	// PDFDir receives amendment documents. Empty disables downloads.
	PDFDir string
	// Concurrency bounds laws processed at once during a folder sync.
	Concurrency int
}

// DefaultConcurrency is used when Options.Concurrency is unset.
const DefaultConcurrency = 4

// Pipeline runs fetch, parse, audit and store for one law or a folder.
type Pipeline struct {
	src    Source
	parser *lawparse.Parser
	store  store.Store
	opts   Options
}

// New creates a Pipeline with all dependencies.
func New(src Source, parser *lawparse.Parser, st store.Store, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Pipeline{src: src, parser: parser, store: st, opts: opts}
}

// Result is the outcome of processing one law.
type Result struct {
	Law      *model.Law      `json:"law"`
	Findings []audit.Finding `json:"findings"`
	Summary  audit.Summary   `json:"summary"`
	PDFs     int             `json:"pdfs"`
	Duration time.Duration   `json:"duration"`
}

// Run fetches, parses, audits and stores a single law.
func (p *Pipeline) Run(ctx context.Context, lawID string) (*Result, error) {
	id, err := fetcher.ValidateLawID(lawID)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("law_id", id))
	start := time.Now()

	page, err := p.src.LawPage(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch")
	}

	law, err := p.parser.ParseHTML(ctx, bytes.NewReader(page), id)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: parse")
	}
	law.SourceURL = p.src.LawURL(id)

	pdfs := 0
	if p.opts.PDFDir != "" {
		pdfs = p.downloadPDFs(ctx, law)
	}

	findings := audit.LawFindings(law)
	summary := audit.Summarize(findings)
	if summary.High > 0 {
		log.Warn("pipeline: law has high severity findings",
			zap.Int("high", summary.High),
			zap.Int("total", summary.Total),
		)
	}

	if err := p.store.SaveLaw(ctx, law); err != nil {
		return nil, eris.Wrap(err, "pipeline: save")
	}

	res := &Result{
		Law:      law,
		Findings: findings,
		Summary:  summary,
		PDFs:     pdfs,
		Duration: time.Since(start),
	}
	st := law.Stats()
	log.Info("pipeline: law extracted",
		zap.String("name", law.Name),
		zap.Int("articles", st.Articles),
		zap.Int("amended", st.Amended),
		zap.Int("canceled", st.Canceled),
		zap.Int("pdfs", pdfs),
		zap.Int64("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}

// downloadPDFs saves each linked amendment document under PDFDir and records
// its local path. Files already on disk are reused. Failures are logged and
// leave PDFLocalPath empty.
func (p *Pipeline) downloadPDFs(ctx context.Context, law *model.Law) int {
	if err := os.MkdirAll(p.opts.PDFDir, 0o755); err != nil {
		zap.L().Warn("pipeline: create pdf dir", zap.String("dir", p.opts.PDFDir), zap.Error(err))
		return 0
	}

	n := 0
	for i := range law.Articles {
		a := &law.Articles[i]
		num := "x"
		if a.Number != nil {
			num = strconv.Itoa(*a.Number)
		}
		for j := range a.Amendments {
			am := &a.Amendments[j]
			if am.PDFURL == "" {
				continue
			}
			if ctx.Err() != nil {
				return n
			}
			path := filepath.Join(p.opts.PDFDir, fmt.Sprintf("%s_art%s_%d.pdf", law.ID, num, n))
			if _, err := os.Stat(path); err != nil {
				if _, err := p.src.DownloadPDF(ctx, am.PDFURL, path); err != nil {
					zap.L().Warn("pipeline: amendment pdf",
						zap.String("law_id", law.ID),
						zap.String("url", am.PDFURL),
						zap.Error(err),
					)
					continue
				}
			}
			am.PDFLocalPath = path
			n++
		}
	}
	return n
}
