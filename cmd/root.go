package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/statute-cli/internal/config"
	"github.com/sells-group/statute-cli/internal/fetcher"
	"github.com/sells-group/statute-cli/internal/lawparse"
	"github.com/sells-group/statute-cli/internal/pipeline"
	"github.com/sells-group/statute-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "statute-cli",
	Short: "Statute extraction and amendment reconciliation",
	Long:  "Fetches statute pages, parses articles and paragraphs, applies recorded amendments, audits the result and serves the law library.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// initParser builds the law parser from the parse section.
func initParser() (*lawparse.Parser, error) {
	p, err := lawparse.FromConfig(cfg.Parse, cfg.Fetch.BaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init parser")
	}
	return p, nil
}

// initBOE builds the statute site client.
func initBOE() *fetcher.BOE {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
		RatePerSec: cfg.Fetch.RatePerSec,
	})
	return fetcher.NewBOE(f, cfg.Fetch.BaseURL)
}

// pipelineEnv holds the store and pipeline used by fetch and sync.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config for mode and wires store, parser and site
// client. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	parser, err := initParser()
	if err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	p := pipeline.New(initBOE(), parser, st, pipeline.Options{
		PDFDir:      cfg.Fetch.PDFDir,
		Concurrency: cfg.Batch.MaxConcurrentLaws,
	})
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
