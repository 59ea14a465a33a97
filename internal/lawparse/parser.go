// Package lawparse assembles a structured Law from a statute page or from
// OCR text. It composes the classifier, structurer, amendment extractor,
// applicator and quality flags.
package lawparse

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/statute-cli/internal/amend"
	"github.com/sells-group/statute-cli/internal/audit"
	"github.com/sells-group/statute-cli/internal/classify"
	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/structure"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// DefaultWorkers is the article fan-out used when Options.Workers is unset.
const DefaultWorkers = 4

const (
	articlePrefix = "article_item"
	popupEntry    = "article_item_popup"
)

// Options configures a Parser.
type Options struct {
	Structure   structure.Options
	Workers     int
	BaseURL     string
	MaxNewText  int
	Corrections *textnorm.Corrections
}

// Parser turns statute pages into Law records. A Parser holds only
// immutable configuration and may be shared across goroutines.
type Parser struct {
	structurer  *structure.Structurer
	extractor   *amend.Extractor
	corrections *textnorm.Corrections
	workers     int
}

// New creates a Parser.
func New(opts Options) *Parser {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Parser{
		structurer:  structure.New(opts.Structure),
		extractor:   amend.NewExtractor(opts.BaseURL, opts.MaxNewText),
		corrections: opts.Corrections,
		workers:     opts.Workers,
	}
}

// ParseHTML parses a law details page. Articles that cannot be reconciled
// are logged and dropped; only read or cancellation errors are returned.
func (p *Parser) ParseHTML(ctx context.Context, r io.Reader, lawID string) (*model.Law, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "lawparse: parse html")
	}
	return p.ParseDocument(ctx, doc.Selection, lawID)
}

// ParseDocument parses an already loaded page. The document is only read,
// so articles are processed concurrently.
func (p *Parser) ParseDocument(ctx context.Context, doc *goquery.Selection, lawID string) (*model.Law, error) {
	log := zap.L().With(zap.String("law_id", lawID))

	m := extractMeta(doc)
	law := &model.Law{
		ID:                   lawID,
		Name:                 m.Name,
		IssuingAuthority:     m.IssuingAuthority,
		IssueDateHijri:       m.IssueDateHijri,
		IssueDateGregorian:   m.IssueDateGregorian,
		PublishDateHijri:     m.PublishDateHijri,
		PublishDateGregorian: m.PublishDateGregorian,
		Status:               m.Status,
		Structure:            []model.StructuralHeading{},
	}

	articles := articleNodes(doc)
	ol := p.outline(doc, articles)
	law.Structure = append(law.Structure, ol.headings...)
	law.RoyalDecree = ol.decree
	if len(articles) > 0 {
		law.CabinetDecisionText = cabinetDecision(articles[0])
	}

	results := make([]*model.Article, len(articles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, sel := range articles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := p.article(doc, sel)
			if err != nil {
				log.Warn("skipping article",
					zap.Int("index", i),
					zap.String("heading", textnorm.Clean(sel.Find("h3").First().Text())),
					zap.Error(err))
				return nil
			}
			a.HeadingContext = ol.contexts[sel.Get(0)]
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "lawparse: parse articles")
	}

	law.Articles = make([]model.Article, 0, len(results))
	for _, a := range results {
		if a != nil {
			law.Articles = append(law.Articles, *a)
		}
	}
	law.TotalArticles = len(law.Articles)

	stats := law.Stats()
	log.Debug("parsed law",
		zap.Int("articles", stats.Articles),
		zap.Int("amended", stats.Amended),
		zap.Int("canceled", stats.Canceled),
		zap.Int("flagged", stats.Flagged),
		zap.Int("dropped", len(articles)-stats.Articles),
	)
	return law, nil
}

// article reconciles one article subtree.
func (p *Parser) article(doc, sel *goquery.Selection) (*model.Article, error) {
	r, err := classify.Classify(sel)
	if err != nil {
		return nil, err
	}
	a := &model.Article{
		Number:       r.Number,
		NumberText:   r.NumberText,
		Status:       r.Status,
		OriginalText: p.corrections.Apply(structure.Flatten(r.Container)),
		Paragraphs:   p.correct(p.structurer.Structure(r.Container)),
	}
	if r.Status == model.StatusAmended {
		a.Amendments = p.extractor.Extract(doc, sel)
	}
	p.reconcile(a)
	return a, nil
}

// correct applies the correction dictionary to paragraph texts in place.
func (p *Parser) correct(paras []model.Paragraph) []model.Paragraph {
	if p.corrections.Len() == 0 {
		return paras
	}
	for i := range paras {
		paras[i].Text = p.corrections.Apply(paras[i].Text)
	}
	return paras
}

// reconcile derives current text, outcomes and quality flags.
func (p *Parser) reconcile(a *model.Article) {
	if a.Status == model.StatusCanceled {
		a.CurrentText = ""
	} else {
		a.CurrentText, a.Outcomes = amend.Apply(a.OriginalText, a.Amendments)
		for _, o := range a.Unapplied() {
			zap.L().Debug("amendment not applied",
				zap.String("article", a.NumberText),
				zap.Int("index", o.Index),
				zap.String("marker", o.Marker),
				zap.String("outcome", string(o.Kind)))
		}
	}
	if a.Paragraphs == nil {
		a.Paragraphs = []model.Paragraph{}
	}
	if a.Amendments == nil {
		a.Amendments = []model.Amendment{}
	}
	a.QualityFlags = audit.ArticleFlags(a)
	if a.QualityFlags == nil {
		a.QualityFlags = []model.QualityFlag{}
	}
}

// articleNodes returns the article subtrees in document order: divs with an
// article_item* class that are not popup entries and do not sit inside a
// history popup.
func articleNodes(doc *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if !isArticle(s) {
			return
		}
		if s.ParentsFiltered("div." + classify.ClassPopup).Length() > 0 {
			return
		}
		out = append(out, s)
	})
	return out
}

func isArticle(s *goquery.Selection) bool {
	class, _ := s.Attr("class")
	if s.HasClass(popupEntry) {
		return false
	}
	for _, c := range strings.Fields(class) {
		if strings.HasPrefix(c, articlePrefix) {
			return true
		}
	}
	return false
}

type outline struct {
	headings []model.StructuralHeading
	contexts map[*html.Node][]string
	decree   *model.RoyalDecree
}

// outline walks the page once in document order, recording structural
// headings, the heading stack active at each article and the issuing decree
// found in the preamble.
func (p *Parser) outline(doc *goquery.Selection, articles []*goquery.Selection) outline {
	o := outline{contexts: make(map[*html.Node][]string, len(articles))}
	isArticleNode := make(map[*html.Node]bool, len(articles))
	for _, a := range articles {
		isArticleNode[a.Get(0)] = true
	}

	var stack headingStack
	var preamble []string
	seenArticle := false
	doc.Find("h3, div").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if isArticleNode[n] {
			o.contexts[n] = stack.context()
			seenArticle = true
			return
		}
		switch goquery.NodeName(s) {
		case "h3":
			text := textnorm.Clean(s.Text())
			if typ, ok := headingType(text); ok {
				h := model.StructuralHeading{Type: typ, Text: text, Order: typ.Order()}
				o.headings = append(o.headings, h)
				stack = stack.push(h)
			}
		case "div":
			if !seenArticle && s.HasClass(classify.ClassContainer) &&
				s.ParentsFiltered("div."+classify.ClassPopup).Length() == 0 {
				preamble = append(preamble, structure.Flatten(s))
			}
		}
	})

	// The decree is the preamble block closest to the first article.
	for i := len(preamble) - 1; i >= 0; i-- {
		if rd := royalDecree(preamble[i]); rd != nil {
			o.decree = rd
			break
		}
	}
	return o
}
