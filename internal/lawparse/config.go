package lawparse

import (
	"github.com/sells-group/statute-cli/internal/config"
	"github.com/sells-group/statute-cli/internal/structure"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// FromConfig builds a Parser from the parse section, loading the corrections
// dictionary when one is configured.
func FromConfig(cfg config.ParseConfig, baseURL string) (*Parser, error) {
	var corr *textnorm.Corrections
	if cfg.CorrectionsFile != "" {
		c, err := textnorm.LoadCorrections(cfg.CorrectionsFile)
		if err != nil {
			return nil, err
		}
		corr = c
	}
	return New(Options{
		Structure: structure.Options{
			MinWords:      cfg.MinWords,
			FallbackRatio: cfg.DOMFallbackRatio,
		},
		Workers:     cfg.Workers,
		BaseURL:     baseURL,
		MaxNewText:  cfg.MaxNewTextRunes,
		Corrections: corr,
	}), nil
}
