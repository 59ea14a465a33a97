package audit

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/numeral"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Code identifies the kind of finding.
type Code string

const (
	CodeMissingField       Code = "MISSING_MANDATORY_FIELD"
	CodeTotalMismatch      Code = "TOTAL_ARTICLES_MISMATCH"
	CodeInvalidNumber      Code = "INVALID_ARTICLE_NUMBER"
	CodeEmptyText          Code = "EMPTY_ARTICLE_TEXT"
	CodePlaceholderText    Code = "PLACEHOLDER_TEXT"
	CodeDuplicateNumber    Code = "DUPLICATE_ARTICLE_NUMBER"
	CodeNumberGaps         Code = "ARTICLE_NUMBER_GAPS"
	CodeUnappliedAmendment Code = "UNAPPLIED_AMENDMENT"
	CodeQualityFlag        Code = "QUALITY_FLAG"
)

// Finding is one problem found in a law.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	LawID    string   `json:"law_id"`
	Message  string   `json:"message"`
	Location string   `json:"location"`
}

// Summary counts findings by severity.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

var placeholders = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bTODO\b`),
	regexp.MustCompile(`(?i)\bFIXME\b`),
	regexp.MustCompile(`\.{3,}`),
	regexp.MustCompile(`غير\s+متوفر`),
	regexp.MustCompile(`يُضاف\s+لاحقًا`),
}

// maxGapPreview caps the missing numbers listed in a gap finding.
const maxGapPreview = 10

// LawFindings checks a law for completeness and consistency.
func LawFindings(law *model.Law) []Finding {
	var out []Finding
	add := func(sev Severity, code Code, loc, format string, args ...any) {
		out = append(out, Finding{
			Severity: sev,
			Code:     code,
			LawID:    law.ID,
			Message:  fmt.Sprintf(format, args...),
			Location: loc,
		})
	}

	mandatory := []struct {
		name  string
		empty bool
	}{
		{"law_id", strings.TrimSpace(law.ID) == ""},
		{"law_name", strings.TrimSpace(law.Name) == ""},
		{"issue_date_hijri", strings.TrimSpace(law.IssueDateHijri) == ""},
		{"publish_date_hijri", strings.TrimSpace(law.PublishDateHijri) == ""},
		{"articles", len(law.Articles) == 0},
	}
	for _, f := range mandatory {
		if f.empty {
			add(SeverityHigh, CodeMissingField, "$."+f.name, "mandatory field %s is missing or empty", f.name)
		}
	}

	if law.TotalArticles != len(law.Articles) {
		add(SeverityMedium, CodeTotalMismatch, "$.total_articles",
			"total_articles %d does not match article count %d", law.TotalArticles, len(law.Articles))
	}

	var numbers []int
	for i := range law.Articles {
		a := &law.Articles[i]
		loc := fmt.Sprintf("$.articles[%d]", i)

		if a.Number == nil {
			add(SeverityMedium, CodeInvalidNumber, loc+".number", "article number %q is not an integer", a.NumberText)
		} else {
			numbers = append(numbers, *a.Number)
		}

		text := strings.TrimSpace(a.OriginalText)
		switch {
		case text == "" && a.Status != model.StatusCanceled:
			add(SeverityHigh, CodeEmptyText, loc+".original_text", "article text is empty")
		case text != "":
			normalized := numeral.ToASCII(text)
			for _, re := range placeholders {
				if re.MatchString(normalized) {
					add(SeverityLow, CodePlaceholderText, loc+".original_text", "article text contains placeholder %q", re.FindString(normalized))
					break
				}
			}
		}

		for _, o := range a.Unapplied() {
			add(SeverityMedium, CodeUnappliedAmendment, fmt.Sprintf("%s.amendments[%d]", loc, o.Index),
				"amendment not applied (%s) for paragraph %q", o.Kind, o.Marker)
		}
		for _, f := range a.QualityFlags {
			add(SeverityLow, CodeQualityFlag, loc+".quality_flags", "article flagged %s", f)
		}
	}

	if len(numbers) > 0 {
		counts := make(map[int]int, len(numbers))
		maxNum := 0
		for _, n := range numbers {
			counts[n]++
			if n > maxNum {
				maxNum = n
			}
		}
		var dups []int
		for n, c := range counts {
			if c > 1 {
				dups = append(dups, n)
			}
		}
		sort.Ints(dups)
		for _, n := range dups {
			add(SeverityHigh, CodeDuplicateNumber, "$.articles[*].number", "article number %d appears %d times", n, counts[n])
		}

		var missing []string
		total := 0
		for n := 1; n <= maxNum; n++ {
			if counts[n] > 0 {
				continue
			}
			total++
			if len(missing) < maxGapPreview {
				missing = append(missing, strconv.Itoa(n))
			}
		}
		if total > 0 {
			suffix := ""
			if total > maxGapPreview {
				suffix = " ..."
			}
			add(SeverityMedium, CodeNumberGaps, "$.articles[*].number",
				"article numbering has gaps: %s%s", strings.Join(missing, ", "), suffix)
		}
	}
	return out
}

// Summarize counts findings by severity.
func Summarize(findings []Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	return s
}
