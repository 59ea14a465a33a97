package pipeline

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/statute-cli/internal/fetcher"
	"github.com/sells-group/statute-cli/internal/store"
)

// SyncOptions controls a folder sync.
type SyncOptions struct {
	// Limit caps the laws processed after resume filtering. Zero means all.
	Limit int
	// Resume skips laws already in the store.
	Resume bool
}

// SyncResult counts the outcome of a folder sync.
type SyncResult struct {
	Folder    int           `json:"folder"`
	Listed    int           `json:"listed"`
	Extracted int           `json:"extracted"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	FailedIDs []string      `json:"failed_ids,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// SyncFolder extracts every law listed in a folder. Per-law failures are
// logged and counted; only listing, store and cancellation errors abort.
func (p *Pipeline) SyncFolder(ctx context.Context, folder int, opts SyncOptions) (*SyncResult, error) {
	if _, ok := fetcher.FolderByID(folder); !ok {
		return nil, eris.Errorf("pipeline: unknown folder %d", folder)
	}
	log := zap.L().With(zap.Int("folder", folder))
	start := time.Now()
	res := &SyncResult{Folder: folder}

	run, err := p.store.StartRun(ctx, "folder:"+strconv.Itoa(folder))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: start run")
	}
	res.RunID = run.ID

	finish := func(status store.RunStatus) {
		run.Status = status
		run.Extracted, run.Skipped, run.Failed = res.Extracted, res.Skipped, res.Failed
		// The sync context may be canceled; record the run regardless.
		if err := p.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			log.Warn("pipeline: finish run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	laws, err := p.src.FolderLaws(ctx, folder)
	if err != nil {
		finish(store.RunFailed)
		return nil, eris.Wrap(err, "pipeline: list folder")
	}
	res.Listed = len(laws)

	todo := laws
	if opts.Resume {
		todo = todo[:0:0]
		for _, l := range laws {
			ok, err := p.store.HasLaw(ctx, l.ID)
			if err != nil {
				finish(store.RunFailed)
				return nil, eris.Wrap(err, "pipeline: resume check")
			}
			if ok {
				res.Skipped++
				continue
			}
			todo = append(todo, l)
		}
	}
	if opts.Limit > 0 && len(todo) > opts.Limit {
		todo = todo[:opts.Limit]
	}

	log.Info("pipeline: syncing folder",
		zap.Int("listed", res.Listed),
		zap.Int("skipped", res.Skipped),
		zap.Int("to_extract", len(todo)),
		zap.Int("concurrency", p.opts.Concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	var extracted, done atomic.Int64
	failed := make([]bool, len(todo))
	for i, ref := range todo {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if _, err := p.Run(gctx, ref.ID); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed[i] = true
				log.Error("pipeline: law failed", zap.String("law_id", ref.ID), zap.String("name", ref.Name), zap.Error(err))
				return nil // don't abort the sync on one law
			}
			extracted.Add(1)
			if n := done.Add(1); n%25 == 0 {
				log.Info("pipeline: sync progress", zap.Int64("extracted", n), zap.Int("total", len(todo)))
			}
			return nil
		})
	}
	waitErr := g.Wait()

	res.Extracted = int(extracted.Load())
	for i, f := range failed {
		if f {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, todo[i].ID)
		}
	}
	res.Duration = time.Since(start)

	if waitErr != nil {
		finish(store.RunFailed)
		return res, eris.Wrap(waitErr, "pipeline: sync folder")
	}
	finish(store.RunComplete)

	log.Info("pipeline: folder synced",
		zap.Int("extracted", res.Extracted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int64("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}

// SyncAll syncs the given folders in order, or every folder when none are
// given. It stops at the first folder-level error.
func (p *Pipeline) SyncAll(ctx context.Context, folders []int, opts SyncOptions) ([]*SyncResult, error) {
	if len(folders) == 0 {
		for _, f := range fetcher.Folders() {
			folders = append(folders, f.ID)
		}
	}
	var out []*SyncResult
	for _, f := range folders {
		res, err := p.SyncFolder(ctx, f, opts)
		if res != nil {
			out = append(out, res)
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
