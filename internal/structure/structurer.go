package structure

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// Structurer selects between the DOM and text strategies for a container.
// It holds no mutable state and is safe for concurrent use.
type Structurer struct {
	dom   Strategy
	text  *TextStrategy
	ratio float64
}

// New returns a Structurer configured by opts.
func New(opts Options) *Structurer {
	opts = opts.withDefaults()
	return &Structurer{
		dom:   NewDOMStrategy(opts),
		text:  NewTextStrategy(opts),
		ratio: opts.FallbackRatio,
	}
}

// Structure returns the paragraphs of container. The DOM result is used
// unless its total text length falls below the fallback ratio of the
// flattened text, in which case the text result is returned instead.
func (s *Structurer) Structure(container *goquery.Selection) []model.Paragraph {
	flat := Flatten(container)
	paras := s.dom.Structure(container)
	if !s.keepDOM(paras, flat) {
		return s.text.FromText(flat)
	}
	return paras
}

// FromText structures plain text with the text strategy.
func (s *Structurer) FromText(text string) []model.Paragraph {
	return s.text.FromText(text)
}

func (s *Structurer) keepDOM(paras []model.Paragraph, flat string) bool {
	if flat == "" {
		return true
	}
	return float64(model.TextLength(paras)) >= s.ratio*float64(textnorm.RuneLen(flat))
}
