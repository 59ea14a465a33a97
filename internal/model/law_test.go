package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLaw() *Law {
	return &Law{
		ID:   "16b97fcb-4833-4f66-8531-a9a700f161b6",
		Name: "نظام تجريبي",
		Articles: []Article{
			{Number: IntPtr(1), Status: StatusActive},
			{Number: IntPtr(2), Status: StatusAmended, QualityFlags: []QualityFlag{FlagSuspectedShort}},
			{Number: IntPtr(3), Status: StatusCanceled},
			{Number: nil, Status: StatusActive},
		},
	}
}

func TestLaw_Stats(t *testing.T) {
	st := sampleLaw().Stats()
	assert.Equal(t, LawStats{Articles: 4, Amended: 1, Canceled: 1, Flagged: 1}, st)
}

func TestLaw_Article(t *testing.T) {
	law := sampleLaw()

	a := law.Article(2)
	require.NotNil(t, a)
	assert.Equal(t, StatusAmended, a.Status)

	a.CurrentText = "changed"
	assert.Equal(t, "changed", law.Articles[1].CurrentText)

	assert.Nil(t, law.Article(0))
	assert.Nil(t, law.Article(9))
}

func TestArticle_HasFlag(t *testing.T) {
	a := Article{QualityFlags: []QualityFlag{FlagSuspectedScramble}}
	assert.True(t, a.HasFlag(FlagSuspectedScramble))
	assert.False(t, a.HasFlag(FlagSuspectedShort))
}

func TestArticle_Unapplied(t *testing.T) {
	a := Article{Outcomes: []Outcome{
		{Index: 0, Marker: "أ", Kind: OutcomeApplied},
		{Index: 1, Kind: OutcomeSkippedIncomplete},
		{Index: 2, Marker: "ب", Kind: OutcomeSkippedNotFound},
	}}
	got := a.Unapplied()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 2, got[1].Index)

	assert.Nil(t, (&Article{}).Unapplied())
}

func TestArticle_NullNumberJSON(t *testing.T) {
	data, err := json.Marshal(Article{Status: StatusActive})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"number":null`)
}

func TestHeadingType_Order(t *testing.T) {
	tests := []struct {
		h    HeadingType
		want int
	}{
		{HeadingPart, 0},
		{HeadingAppendix, 0},
		{HeadingSection, 1},
		{HeadingChapter, 1},
		{HeadingSubchapter, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.h), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.h.Order())
		})
	}
}

func TestAmendment_Applicable(t *testing.T) {
	assert.True(t, Amendment{AffectedParagraph: "1", NewText: "x"}.Applicable())
	assert.False(t, Amendment{AffectedParagraph: "1"}.Applicable())
	assert.False(t, Amendment{NewText: "x"}.Applicable())
}

func TestTextLength(t *testing.T) {
	paras := []Paragraph{
		{Text: "نص", Type: ParagraphText},
		{Type: ParagraphTable, TableRows: [][]string{{"ab", "c"}, {"د"}}},
	}
	assert.Equal(t, 6, TextLength(paras))
	assert.Equal(t, 0, TextLength(nil))
}
