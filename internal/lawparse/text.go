package lawparse

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/numeral"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// articleLine matches an article heading at the start of an OCR line. The
// heading must stand alone or be followed by a separator before any body
// text, so a sentence that merely opens with a cross reference is not split.
var articleLine = regexp.MustCompile(
	`^(المادة\s+(?:\(?[0-9\x{0660}-\x{0669}]+\)?|ال[^\s:\-–—]+(?:\s+(?:عشرة|عشر|وال[^\s:\-–—]+|بعد\s+المائة))*))\s*([:\-–—])?\s*(.*)$`)

// maxStructuralWords bounds the length of a structural heading line.
const maxStructuralWords = 12

// ParseText parses flat text (typically pdftotext output) into a Law. All
// articles are active and are structured with the text strategy only.
func (p *Parser) ParseText(text, lawID string) *model.Law {
	law := &model.Law{
		ID:        lawID,
		Status:    DefaultLawStatus,
		Structure: []model.StructuralHeading{},
		Articles:  []model.Article{},
	}

	var (
		preamble []string
		current  *model.Article
		body     []string
		stack    headingStack
	)
	flush := func() {
		if current == nil {
			return
		}
		current.OriginalText = strings.Join(body, "\n")
		current.Paragraphs = p.structurer.FromText(current.OriginalText)
		p.reconcile(current)
		law.Articles = append(law.Articles, *current)
		current, body = nil, nil
	}

	for _, ln := range textnorm.Lines(p.corrections.Apply(text)) {
		if heading, rest, ok := splitArticleLine(ln); ok {
			flush()
			current = &model.Article{
				NumberText:     heading,
				Status:         model.StatusActive,
				HeadingContext: stack.context(),
			}
			if n, ok := numeral.Resolve(heading); ok {
				current.Number = model.IntPtr(n)
			}
			if rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if typ, ok := structuralLine(ln); ok {
			flush()
			h := model.StructuralHeading{Type: typ, Text: ln, Order: typ.Order()}
			law.Structure = append(law.Structure, h)
			stack = stack.push(h)
			continue
		}
		if current == nil {
			preamble = append(preamble, ln)
			continue
		}
		body = append(body, ln)
	}
	flush()

	if len(preamble) > 0 {
		law.Name = lawName(preamble)
		law.RoyalDecree = royalDecree(strings.Join(preamble, "\n"))
	}
	law.TotalArticles = len(law.Articles)

	zap.L().Debug("parsed law text",
		zap.String("law_id", lawID),
		zap.Int("articles", law.TotalArticles),
		zap.Int("headings", len(law.Structure)),
	)
	return law
}

func splitArticleLine(ln string) (heading, rest string, ok bool) {
	m := articleLine.FindStringSubmatch(ln)
	if m == nil {
		return "", "", false
	}
	if m[3] != "" && m[2] == "" {
		return "", "", false
	}
	return m[1], m[3], true
}

// structuralLine reports whether ln is a part/chapter/section heading: a
// heading keyword opening a short line, followed by an ordinal or a number.
func structuralLine(ln string) (model.HeadingType, bool) {
	words := strings.Fields(ln)
	if len(words) < 2 || len(words) > maxStructuralWords {
		return "", false
	}
	for _, k := range headingKeywords {
		if words[0] != k.word {
			continue
		}
		next := numeral.ToASCII(strings.Trim(words[1], "():"))
		if strings.HasPrefix(next, "ال") || isDigits(next) {
			return k.typ, true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// lawName picks the title line of a text preamble: the first line naming a
// statute, else the first line that is not the basmala.
func lawName(preamble []string) string {
	for _, ln := range preamble {
		if strings.HasPrefix(ln, "نظام") || strings.HasPrefix(ln, "لائحة") || strings.HasPrefix(ln, "اللائحة") {
			return ln
		}
	}
	for _, ln := range preamble {
		if !strings.Contains(ln, basmala) {
			return ln
		}
	}
	return ""
}
