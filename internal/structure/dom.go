package structure

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// minItemRunes is the shortest unmarked list line kept as its own paragraph.
const minItemRunes = 6

// DOMStrategy walks the container markup: lists become numbered items with
// lettered children, tables become table paragraphs and the prose between
// them goes through the text strategy.
type DOMStrategy struct {
	text *TextStrategy
}

// NewDOMStrategy returns a DOM strategy using opts for its prose runs.
func NewDOMStrategy(opts Options) *DOMStrategy {
	return &DOMStrategy{text: NewTextStrategy(opts)}
}

// Name implements Strategy.
func (s *DOMStrategy) Name() string { return "dom" }

type walkState struct {
	out    []model.Paragraph
	prose  []string
	blocks int
}

// Structure implements Strategy. Containers without direct list or table
// children are handed to the text strategy whole.
func (s *DOMStrategy) Structure(container *goquery.Selection) []model.Paragraph {
	if container == nil || container.Length() == 0 {
		return nil
	}
	st := &walkState{}
	s.walk(container.First(), st)
	if st.blocks == 0 {
		return s.text.Structure(container)
	}
	s.flush(st)
	return st.out
}

func (s *DOMStrategy) walk(sel *goquery.Selection, st *walkState) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		n := c.Get(0)
		switch n.Type {
		case html.TextNode:
			if t := textnorm.Clean(n.Data); textnorm.RuneLen(t) > 3 {
				st.prose = append(st.prose, t)
			}
			return
		case html.ElementNode:
		default:
			return
		}

		switch {
		case n.DataAtom == atom.Ol || n.DataAtom == atom.Ul:
			items := s.list(c)
			if len(items) == 0 {
				break
			}
			s.flush(st)
			st.out = append(st.out, items...)
			st.blocks++
			return
		case n.DataAtom == atom.Table:
			p, ok := tableParagraph(c)
			if !ok {
				break
			}
			s.flush(st)
			st.out = append(st.out, p)
			st.blocks++
			return
		case n.DataAtom == atom.Div && hasBlockChild(c):
			s.walk(c, st)
			return
		}
		if t := textnorm.FromNode(n, false); textnorm.RuneLen(t) > 3 {
			st.prose = append(st.prose, t)
		}
	})
}

func (s *DOMStrategy) flush(st *walkState) {
	if len(st.prose) == 0 {
		return
	}
	st.out = append(st.out, s.text.FromText(strings.Join(st.prose, "\n"))...)
	st.prose = nil
}

func hasBlockChild(sel *goquery.Selection) bool {
	return sel.ChildrenFiltered("ol, ul, table").Length() > 0
}

func (s *DOMStrategy) list(sel *goquery.Selection) []model.Paragraph {
	ordered := goquery.NodeName(sel) == "ol"
	start := 1
	if v, ok := sel.Attr("start"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			start = n
		}
	}
	var out []model.Paragraph
	sel.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		idx := 0
		if ordered {
			idx = start + i
		}
		out = append(out, item(li, idx)...)
	})
	return out
}

// item structures one list item. idx is the implicit item number, zero for
// unordered lists.
func item(li *goquery.Selection, idx int) []model.Paragraph {
	var lines []string
	for _, ln := range textnorm.Lines(textnorm.FromNode(li.Get(0), false)) {
		lines = append(lines, splitLetters(ln)...)
	}
	if len(lines) == 0 {
		return nil
	}

	para := func(m Match, level int) model.Paragraph {
		return model.Paragraph{Marker: m.Marker, Text: m.Text, Level: level, Type: model.ParagraphText}
	}
	var out []model.Paragraph

	// An item that opens with a letter is a run of sub-items.
	if _, ok := MatchLetter(lines[0]); ok {
		for _, ln := range lines {
			if m, ok := firstMatch([]Matcher{MatchLetter, MatchNumeral}, ln); ok {
				out = append(out, para(m, model.LevelSubItem))
			} else if textnorm.RuneLen(ln) >= minItemRunes {
				out = append(out, model.Paragraph{Text: ln, Level: model.LevelSubItem, Type: model.ParagraphText})
			}
		}
		return out
	}

	first := lines[0]
	if m, ok := MatchOrdinal(first); ok {
		out = append(out, para(m, model.LevelClause))
	} else if m, ok := MatchNumeral(first); ok {
		out = append(out, para(m, model.LevelItem))
	} else {
		marker := ""
		if idx > 0 {
			marker = strconv.Itoa(idx) + "-"
		}
		out = append(out, model.Paragraph{Marker: marker, Text: first, Level: model.LevelItem, Type: model.ParagraphText})
	}
	for _, ln := range lines[1:] {
		if m, ok := firstMatch([]Matcher{MatchLetter, MatchNumeral}, ln); ok {
			out = append(out, para(m, model.LevelSubItem))
		} else if textnorm.RuneLen(ln) >= minItemRunes {
			out = append(out, model.Paragraph{Text: ln, Level: model.LevelItem, Type: model.ParagraphText})
		}
	}
	return out
}

// tableParagraph converts a table into a single table paragraph. Empty
// cells and rows are dropped.
func tableParagraph(sel *goquery.Selection) (model.Paragraph, bool) {
	rows := TableRows(sel)
	if len(rows) == 0 {
		return model.Paragraph{}, false
	}
	return model.Paragraph{Level: model.LevelClause, Type: model.ParagraphTable, TableRows: rows}, true
}

// TableRows extracts the non-empty cell texts of every row of a table.
func TableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, td *goquery.Selection) {
			if t := strings.Join(textnorm.Lines(textnorm.FromNode(td.Get(0), false)), " "); t != "" {
				cells = append(cells, t)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}
