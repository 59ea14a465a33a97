package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/statute-cli/internal/model"
)

func TestArticleFlags_ShortGatedByStatus(t *testing.T) {
	a := &model.Article{Number: model.IntPtr(1), Status: model.StatusActive, OriginalText: "نص قصير ج"}
	require.Equal(t, 9, len([]rune(a.OriginalText)))
	a.OriginalText += "ا"
	assert.Equal(t, []model.QualityFlag{model.FlagSuspectedShort}, ArticleFlags(a))

	a.Status = model.StatusCanceled
	assert.Empty(t, ArticleFlags(a))
}

func TestArticleFlags_LongTextNotShort(t *testing.T) {
	a := &model.Article{Status: model.StatusAmended, OriginalText: "نص المادة طويل بما يكفي لتجاوز الحد الأدنى"}
	assert.Empty(t, ArticleFlags(a))
}

func TestArticleFlags_Scramble(t *testing.T) {
	text := "المادة الأولى نص المادة. المادة الثانية نص آخر يتسرب من مادة لاحقة."
	a := &model.Article{Number: model.IntPtr(1), Status: model.StatusActive, OriginalText: text}
	assert.Equal(t, []model.QualityFlag{model.FlagSuspectedScramble}, ArticleFlags(a))

	a.Number = nil
	assert.Empty(t, ArticleFlags(a))
}

func TestArticleFlags_SingleInnerHeadingIsFine(t *testing.T) {
	a := &model.Article{Number: model.IntPtr(3), OriginalText: "مع مراعاة ما ورد في المادة الأولى من هذا النظام يعمل به"}
	assert.Empty(t, ArticleFlags(a))
}

func article(n int, text string) model.Article {
	return model.Article{Number: model.IntPtr(n), NumberText: "المادة", Status: model.StatusActive, OriginalText: text, CurrentText: text}
}

func validLaw() *model.Law {
	return &model.Law{
		ID:               "law-1",
		Name:             "نظام تجريبي",
		IssueDateHijri:   "1440/01/01",
		PublishDateHijri: "1440/02/01",
		TotalArticles:    2,
		Articles: []model.Article{
			article(1, "نص المادة الأولى من النظام"),
			article(2, "نص المادة الثانية من النظام"),
		},
	}
}

func codes(findings []Finding) []Code {
	out := make([]Code, len(findings))
	for i, f := range findings {
		out[i] = f.Code
	}
	return out
}

func TestLawFindings_Clean(t *testing.T) {
	assert.Empty(t, LawFindings(validLaw()))
}

func TestLawFindings_MissingFields(t *testing.T) {
	law := &model.Law{}
	got := LawFindings(law)
	require.Len(t, got, 5)
	for _, f := range got {
		assert.Equal(t, CodeMissingField, f.Code)
		assert.Equal(t, SeverityHigh, f.Severity)
	}
	assert.Equal(t, "$.law_name", got[1].Location)
}

func TestLawFindings_ArticleProblems(t *testing.T) {
	law := validLaw()
	law.Articles = append(law.Articles,
		model.Article{NumberText: "ملحق", Status: model.StatusActive, OriginalText: "يضاف النص ..."},
		article(2, ""),
		article(5, "TODO نص"),
	)
	law.TotalArticles = 5

	got := LawFindings(law)
	assert.Equal(t, []Code{
		CodeInvalidNumber,
		CodePlaceholderText,
		CodeEmptyText,
		CodePlaceholderText,
		CodeDuplicateNumber,
		CodeNumberGaps,
	}, codes(got))
	assert.Equal(t, "$.articles[2].number", got[0].Location)
	assert.Contains(t, got[5].Message, "3, 4")
}

func TestLawFindings_CanceledEmptyIsFine(t *testing.T) {
	law := validLaw()
	law.Articles[1].Status = model.StatusCanceled
	law.Articles[1].OriginalText = ""
	assert.Empty(t, LawFindings(law))
}

func TestLawFindings_TotalMismatch(t *testing.T) {
	law := validLaw()
	law.TotalArticles = 3
	got := LawFindings(law)
	require.Len(t, got, 1)
	assert.Equal(t, CodeTotalMismatch, got[0].Code)
	assert.Equal(t, SeverityMedium, got[0].Severity)
}

func TestLawFindings_UnappliedAmendmentsAndFlags(t *testing.T) {
	law := validLaw()
	law.Articles[0].Outcomes = []model.Outcome{
		{Index: 0, Marker: "أ-", Kind: model.OutcomeApplied},
		{Index: 1, Marker: "د-", Kind: model.OutcomeSkippedNotFound},
	}
	law.Articles[1].QualityFlags = []model.QualityFlag{model.FlagSuspectedShort}

	got := LawFindings(law)
	assert.Equal(t, []Code{CodeUnappliedAmendment, CodeQualityFlag}, codes(got))
	assert.Equal(t, "$.articles[0].amendments[1]", got[0].Location)
	assert.Contains(t, got[0].Message, "skipped_not_found")
}

func TestLawFindings_GapPreviewTruncated(t *testing.T) {
	law := validLaw()
	law.Articles = append(law.Articles, article(20, "نص المادة العشرين"))
	law.TotalArticles = 3
	got := LawFindings(law)
	require.Len(t, got, 1)
	assert.Equal(t, CodeNumberGaps, got[0].Code)
	assert.Equal(t, "article numbering has gaps: 3, 4, 5, 6, 7, 8, 9, 10, 11, 12 ...", got[0].Message)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Finding{
		{Severity: SeverityHigh}, {Severity: SeverityHigh}, {Severity: SeverityMedium}, {Severity: SeverityLow},
	})
	assert.Equal(t, Summary{Total: 4, High: 2, Medium: 1, Low: 1}, s)
}
