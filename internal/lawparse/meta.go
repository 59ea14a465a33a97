package lawparse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/numeral"
	"github.com/sells-group/statute-cli/internal/structure"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// DefaultLawStatus is reported when a page carries no status label.
const DefaultLawStatus = "ساري"

var (
	hijriRe     = regexp.MustCompile(`(\d{4}/\d{1,2}/\d{1,2})\s*ه`)
	gregorianRe = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})\s*م`)
	decreeRefRe = regexp.MustCompile(
		`(?:أمر|مرسوم)\s+ملكي\s+رقم\s+(\S+)\s+(?:بتاريخ|وتاريخ)\s+([0-9\x{0660}-\x{0669}\s/]+)`)
)

// headingKeywords maps structural keywords to heading types.
var headingKeywords = []struct {
	word string
	typ  model.HeadingType
}{
	{"الباب", model.HeadingPart},
	{"الجزء", model.HeadingPart},
	{"الملحق", model.HeadingAppendix},
	{"القسم", model.HeadingSection},
	{"الفصل", model.HeadingChapter},
	{"المبحث", model.HeadingSubchapter},
}

// headingType classifies a heading line. The keyword must open the line or
// appear before its first colon.
func headingType(text string) (model.HeadingType, bool) {
	head, _, hasColon := strings.Cut(text, ":")
	for _, k := range headingKeywords {
		if strings.HasPrefix(text, k.word) || (hasColon && strings.Contains(head, k.word)) {
			return k.typ, true
		}
	}
	return "", false
}

// headingStack tracks the structural headings active at a document
// position.
type headingStack []string

func (s headingStack) push(h model.StructuralHeading) headingStack {
	if len(s) > h.Order {
		s = s[:h.Order]
	}
	for len(s) < h.Order {
		s = append(s, "")
	}
	return append(s, h.Text)
}

func (s headingStack) context() []string {
	var out []string
	for _, h := range s {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

type meta struct {
	Name                 string
	IssuingAuthority     string
	IssueDateHijri       string
	IssueDateGregorian   string
	PublishDateHijri     string
	PublishDateGregorian string
	Status               string
}

// extractMeta reads the law name from the first h1 and the label/value
// pairs of the details panel.
func extractMeta(doc *goquery.Selection) meta {
	m := meta{Status: DefaultLawStatus}
	m.Name = textnorm.Clean(doc.Find("h1").First().Text())

	doc.Find("label").Each(func(_ int, label *goquery.Selection) {
		sib := label.Next()
		if sib.Length() == 0 {
			return
		}
		lt := textnorm.Clean(label.Text())
		val := textnorm.Clean(sib.Text())
		switch {
		case strings.Contains(lt, "الاسم"):
			if m.Name == "" {
				m.Name = val
			}
		case strings.Contains(lt, "تاريخ الإصدار"):
			m.IssueDateHijri, m.IssueDateGregorian = dates(val)
		case strings.Contains(lt, "تاريخ النشر"):
			m.PublishDateHijri, m.PublishDateGregorian = dates(val)
		case strings.Contains(lt, "الحالة"):
			if val != "" {
				m.Status = val
			}
		case strings.Contains(lt, "أدوات إصدار") || strings.Contains(lt, "أداة الإصدار"):
			m.IssuingAuthority = val
		}
	})
	return m
}

func dates(val string) (hijri, gregorian string) {
	val = numeral.ToASCII(val)
	if m := hijriRe.FindStringSubmatch(val); m != nil {
		hijri = m[1]
	}
	if m := gregorianRe.FindStringSubmatch(val); m != nil {
		gregorian = m[1]
	}
	return hijri, gregorian
}

var decreeWords = []string{"بعون الله", "بسم الله", "مرسوم ملكي", "أمر ملكي"}

// royalDecree builds the issuing decree from a preamble text block, or nil
// if the block is not one.
func royalDecree(text string) *model.RoyalDecree {
	if text == "" || !containsAny(text, decreeWords) {
		return nil
	}
	rd := &model.RoyalDecree{Text: text}
	if m := decreeRefRe.FindStringSubmatch(text); m != nil {
		rd.Number = textnorm.Clean(m[1])
		rd.DateHijri = strings.Trim(strings.Join(strings.Fields(numeral.ToASCII(m[2])), ""), "/")
	}
	return rd
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

const basmala = "بسم الله الرحمن الرحيم"

// cabinetDecision collects the cabinet decision block that precedes the
// first article among its siblings: a heading naming the decision followed
// by text containers.
func cabinetDecision(first *goquery.Selection) string {
	stop := first.Get(0)
	var header string
	var body []string
	in := false

	first.Parent().Children().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if c.Get(0) == stop {
			return false
		}
		text := structure.Flatten(c)
		if text == "" {
			return true
		}
		tag := goquery.NodeName(c)
		isHeading := tag == "h2" || tag == "h3" || tag == "h4"

		if isHeading && strings.Contains(text, "قرار") && strings.Contains(text, "مجلس الوزراء") {
			header = strings.Join(strings.Fields(text), " ")
			body = nil
			in = true
			return true
		}
		if !in {
			return true
		}
		if isHeading && !strings.Contains(text, "بسم الله") {
			return false
		}
		if tag == "div" && !c.HasClass("HTMLContainer") {
			return false
		}
		if strings.Contains(text, basmala) && len([]rune(text)) < 30 {
			return true
		}
		body = append(body, text)
		return true
	})

	if header == "" {
		return ""
	}
	return strings.Join(append([]string{header}, body...), "\n")
}
