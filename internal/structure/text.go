package structure

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// Options configures structuring. The zero value selects the defaults.
type Options struct {
	// Matchers are tried in order for every line. Nil means DefaultMatchers.
	Matchers []Matcher
	// MinWords drops unmarked lines with fewer words as noise.
	MinWords int
	// FallbackRatio is the fraction of the flattened text length the DOM
	// result must reach before it is preferred over the text result.
	FallbackRatio float64
}

// Defaults.
const (
	DefaultMinWords      = 2
	DefaultFallbackRatio = 0.5
)

func (o Options) withDefaults() Options {
	if o.Matchers == nil {
		o.Matchers = DefaultMatchers
	}
	if o.MinWords <= 0 {
		o.MinWords = DefaultMinWords
	}
	if o.FallbackRatio <= 0 {
		o.FallbackRatio = DefaultFallbackRatio
	}
	return o
}

// Strategy produces paragraphs for one article container.
type Strategy interface {
	Name() string
	Structure(container *goquery.Selection) []model.Paragraph
}

// TextStrategy structures the flattened text of a container line by line.
type TextStrategy struct {
	opts Options
}

// NewTextStrategy returns a text strategy using opts.
func NewTextStrategy(opts Options) *TextStrategy {
	return &TextStrategy{opts: opts.withDefaults()}
}

// Name implements Strategy.
func (s *TextStrategy) Name() string { return "text" }

// Structure implements Strategy.
func (s *TextStrategy) Structure(container *goquery.Selection) []model.Paragraph {
	return s.FromText(Flatten(container))
}

// FromText structures plain text. Empty text yields no paragraphs.
func (s *TextStrategy) FromText(text string) []model.Paragraph {
	lines := textnorm.Lines(text)
	if len(lines) == 0 {
		return nil
	}
	defs := s.definitionsMode(lines)

	var out []model.Paragraph
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if defs {
			if term, def, ok := s.splitDefinition(ln); ok {
				// "term:" on its own line takes the next plain line as its
				// definition.
				if def == "" && i+1 < len(lines) && s.plainLine(lines[i+1]) {
					def = lines[i+1]
					i++
				}
				out = append(out, model.Paragraph{Marker: term + ":", Text: def, Level: model.LevelClause, Type: model.ParagraphText})
				continue
			}
		}
		if m, ok := firstMatch(s.opts.Matchers, ln); ok {
			out = append(out, model.Paragraph{Marker: m.Marker, Text: m.Text, Level: m.Level, Type: model.ParagraphText})
			continue
		}
		if textnorm.WordCount(ln) < s.opts.MinWords {
			continue
		}
		out = append(out, model.Paragraph{Text: ln, Level: model.LevelClause, Type: model.ParagraphText})
	}
	if len(out) == 0 {
		return []model.Paragraph{{Text: strings.Join(lines, "\n"), Level: model.LevelClause, Type: model.ParagraphText}}
	}
	return out
}

// definitionsMode reports whether more than two lines are "term: definition"
// entries with a non-empty definition.
func (s *TextStrategy) definitionsMode(lines []string) bool {
	n := 0
	for _, ln := range lines {
		if _, def, ok := s.splitDefinition(ln); ok && def != "" {
			n++
		}
	}
	return n > 2
}

// plainLine reports whether line is neither a definition nor a marked item.
func (s *TextStrategy) plainLine(line string) bool {
	if _, _, ok := s.splitDefinition(line); ok {
		return false
	}
	_, ok := firstMatch(s.opts.Matchers, line)
	return !ok
}

// splitDefinition splits "term: definition" where term has at most three
// words and is not itself a numbered or lettered marker.
func (s *TextStrategy) splitDefinition(line string) (term, def string, ok bool) {
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", "", false
	}
	term = strings.TrimSpace(line[:i])
	def = strings.TrimSpace(line[i+1:])
	if w := textnorm.WordCount(term); w == 0 || w > 3 {
		return "", "", false
	}
	if _, num := MatchNumeral(line); num {
		return "", "", false
	}
	if _, let := MatchLetter(line); let {
		return "", "", false
	}
	return term, def, true
}

// Flatten renders every node of sel to cleaned text.
func Flatten(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	parts := make([]string, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		if t := textnorm.FromNode(n, false); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
