// Package amend extracts amendment records from article history popups and
// splices them into article text.
package amend

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/numeral"
	"github.com/sells-group/statute-cli/internal/structure"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// DefaultMaxNewText bounds replacement text taken verbatim from a notice.
const DefaultMaxNewText = 500

const (
	historyLinkSelector = "a.ancArticlePrevVersions[data-articleid]"
	entrySelector       = "div.article_item_popup"
	containerSelector   = "div.HTMLContainer"
)

var (
	digits      = `[0-9\x{0660}-\x{0669}]`
	ordinalStem = `(?:أول|ثاني|ثالث|رابع|خامس|سادس|سابع|ثامن|تاسع|عاشر)(?:ا\x{064B}?|\x{064B}ا)`

	decreeRe = regexp.MustCompile(
		`(?:(?:الأمر|المرسوم)\s+الملكي|(?:أمر|مرسوم)\s+ملكي|قرار\s+مجلس\s+الوزراء)\s+رقم\s+(?:\(\s*([^)]+?)\s*\)|(\S+))`)
	dateRe = regexp.MustCompile(
		`تاريخ\s+(` + digits + `+\s*/\s*` + digits + `+\s*/\s*` + digits + `+)`)
	royalRe     = regexp.MustCompile(`(?:مرسوم|أمر)\s+ملكي|(?:المرسوم|الأمر)\s+الملكي`)
	cabinetRe   = regexp.MustCompile(`قرار\s+مجلس\s+الوزراء`)
	paragraphRe = regexp.MustCompile(
		`(?:الفقرة|البند)\s+(?:\(\s*([^)]+?)\s*\)|(ج\x{0640}?|[\x{0623}-\x{064A}])(?:[\s\-–—.،:]|$)|(` + digits + `+)|(` + ordinalStem + `)|(ال\S+(?:\s+(?:عشرة|و\S+))?))`)
	boilerplateRe = regexp.MustCompile(`^بالنص\s+الآت[يى]\s*:?\s*`)
	quotedRe      = regexp.MustCompile(`["«“]([^"»”]+)["»”]`)
	leadingParen  = regexp.MustCompile(`^\(([^)]+)\)`)
	trailingPunct = regexp.MustCompile(`[\s.،؛)]+$`)
	pdfHrefRe     = regexp.MustCompile(`(?i)/Files/Download|\.pdf`)
)

// Extractor pulls amendment records out of article history popups. It holds
// only configuration and is safe for concurrent use.
type Extractor struct {
	base       *url.URL
	maxNewText int
}

// NewExtractor returns an Extractor resolving relative PDF links against
// baseURL. maxNewText <= 0 selects DefaultMaxNewText.
func NewExtractor(baseURL string, maxNewText int) *Extractor {
	if maxNewText <= 0 {
		maxNewText = DefaultMaxNewText
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		base = nil
	}
	return &Extractor{base: base, maxNewText: maxNewText}
}

// Extract returns the amendments recorded for article, one per popup entry
// in document order. Articles without a history link yield nil.
func (e *Extractor) Extract(doc *goquery.Selection, article *goquery.Selection) []model.Amendment {
	popup := Popup(doc, article)
	if popup == nil {
		return nil
	}
	var out []model.Amendment
	popup.Find(entrySelector).Each(func(_ int, entry *goquery.Selection) {
		if a, ok := e.entry(entry); ok {
			out = append(out, a)
		}
	})
	return out
}

// Popup finds the history popup an article links to through its
// data-articleid reference.
func Popup(doc *goquery.Selection, article *goquery.Selection) *goquery.Selection {
	id, ok := article.Find(historyLinkSelector).First().Attr("data-articleid")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return nil
	}
	// Ids are GUIDs that are not valid CSS class selectors, so match the
	// class list directly.
	popup := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass(id)
	}).First()
	if popup.Length() == 0 {
		return nil
	}
	return popup
}

func (e *Extractor) entry(entry *goquery.Selection) (model.Amendment, bool) {
	var a model.Amendment
	a.Title = textnorm.Clean(entry.Find("h3").First().Text())

	if c := entry.Find(containerSelector).First(); c.Length() > 0 {
		a.Description = textnorm.FromNode(c.Get(0), true)
		a.ContentParts = ContentParts(c)
		n := e.parseNotice(a.Description)
		a.Decree, a.Date, a.Source = n.Decree, n.Date, n.Source
		a.AffectedParagraph, a.NewText = n.AffectedParagraph, n.NewText
	} else {
		a.Source = model.SourceUnknown
	}

	entry.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if !pdfHrefRe.MatchString(href) {
			return true
		}
		a.PDFURL = e.resolve(href)
		a.PDFLabel = textnorm.Clean(link.Text())
		return false
	})

	ok := a.Title != "" || a.Description != "" || a.PDFURL != ""
	return a, ok
}

func (e *Extractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	if e.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return e.base.ResolveReference(ref).String()
}

// ParseNotice extracts the structured fields of an amendment notice. Fields
// that cannot be found are left empty; Description is always the input.
func ParseNotice(description string) model.Amendment {
	return (&Extractor{maxNewText: DefaultMaxNewText}).parseNotice(description)
}

func (e *Extractor) parseNotice(text string) model.Amendment {
	a := model.Amendment{Description: text, Source: model.SourceUnknown}

	if m := decreeRe.FindStringSubmatch(text); m != nil {
		d := m[1]
		if d == "" {
			d = trailingPunct.ReplaceAllString(m[2], "")
		}
		a.Decree = textnorm.Clean(d)
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		a.Date = strings.Join(strings.Fields(numeral.ToASCII(m[1])), "")
	}
	switch {
	case royalRe.MatchString(text):
		a.Source = model.SourceRoyalDecree
	case cabinetRe.MatchString(text):
		a.Source = model.SourceCabinetDecision
	}
	a.AffectedParagraph = affectedParagraph(text)
	a.NewText = e.newText(text)
	return a
}

// affectedParagraph returns the paragraph key named by the notice: a letter,
// a number, an ordinal clause word, or an ordinal adjective translated to
// its number.
func affectedParagraph(text string) string {
	m := paragraphRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	var key string
	for _, g := range m[1:] {
		if g != "" {
			key = strings.TrimSpace(g)
			break
		}
	}
	key = strings.ReplaceAll(key, "\u0640", "")
	if isMarkerKey(key) {
		return numeral.ToASCII(key)
	}
	if n, ok := numeral.Resolve(key); ok {
		return strconv.Itoa(n)
	}
	return ""
}

// isMarkerKey reports whether key is usable as a paragraph marker as is.
func isMarkerKey(key string) bool {
	if key == "" {
		return false
	}
	if _, ok := structure.MatchOrdinal(key + ": x"); ok {
		return true
	}
	if r := []rune(key); len(r) == 1 && r[0] >= '\u0623' && r[0] <= '\u064A' {
		return true
	}
	for _, r := range numeral.ToASCII(key) {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// newText returns the replacement wording that follows "لتكون".
func (e *Extractor) newText(text string) string {
	_, rest, ok := strings.Cut(text, "لتكون")
	if !ok {
		return ""
	}
	rest = boilerplateRe.ReplaceAllString(strings.TrimSpace(rest), "")
	rest = strings.TrimLeft(rest, ": \t\n")
	if m := quotedRe.FindStringSubmatch(rest); m != nil {
		return textnorm.Clean(m[1])
	}
	if m := leadingParen.FindStringSubmatch(rest); m != nil {
		return textnorm.Clean(m[1])
	}
	if r := []rune(rest); len(r) > e.maxNewText {
		rest = string(r[:e.maxNewText])
	}
	return textnorm.Clean(trailingPunct.ReplaceAllString(rest, ""))
}

// ContentParts splits a notice container into prose and table segments in
// document order.
func ContentParts(container *goquery.Selection) []model.ContentPart {
	var parts []model.ContentPart
	var buf strings.Builder
	flush := func() {
		if t := textnorm.FromHTML(buf.String(), false); t != "" {
			parts = append(parts, model.ContentPart{Type: model.ContentText, Text: t})
		}
		buf.Reset()
	}
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			n := c.Get(0)
			switch {
			case n.Type == html.TextNode:
				buf.WriteString(html.EscapeString(n.Data))
			case n.Type != html.ElementNode:
			case n.DataAtom == atom.Table:
				flush()
				if rows := structure.TableRows(c); len(rows) > 0 {
					parts = append(parts, model.ContentPart{Type: model.ContentTable, TableRows: rows})
				}
			case c.Find("table").Length() > 0:
				walk(c)
				buf.WriteString("<br>")
			default:
				if h, err := goquery.OuterHtml(c); err == nil {
					buf.WriteString(h)
				}
			}
		})
	}
	walk(container)
	flush()
	return parts
}
