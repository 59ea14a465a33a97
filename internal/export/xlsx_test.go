package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/statute-cli/internal/model"
)

func sheetRows(t *testing.T, f *xlsx.File, name string) [][]string {
	t.Helper()
	sheet, ok := f.Sheet[name]
	require.True(t, ok, "missing sheet %s", name)
	var out [][]string
	for _, row := range sheet.Rows {
		var vals []string
		for _, c := range row.Cells {
			vals = append(vals, c.Value)
		}
		out = append(out, vals)
	}
	return out
}

func exportLaw() *model.Law {
	return &model.Law{
		ID:             "16b97fcb-4833-4f66-8531-a9a700f161b6",
		Name:           "نظام تجريبي",
		Status:         "ساري",
		IssueDateHijri: "1440/05/10",
		TotalArticles:  2,
		Articles: []model.Article{
			{
				Number: model.IntPtr(1), NumberText: "المادة الأولى", Status: model.StatusActive,
				OriginalText: "نص المادة الأولى", CurrentText: "نص المادة الأولى",
			},
			{
				Number: model.IntPtr(2), NumberText: "المادة الثانية", Status: model.StatusAmended,
				OriginalText: "أ- قديم", CurrentText: "أ- جديد",
				QualityFlags: []model.QualityFlag{model.FlagSuspectedShort},
				Amendments: []model.Amendment{{
					Decree: "م/5", Date: "1441/1/1", Source: model.SourceRoyalDecree,
					AffectedParagraph: "أ", NewText: "جديد", Description: "تعديل",
				}},
			},
		},
	}
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(exportLaw())
	require.NoError(t, err)

	arts := sheetRows(t, f, SheetArticles)
	require.Len(t, arts, 3)
	assert.Equal(t, articleHeader, arts[0])
	assert.Equal(t, []string{"2", "المادة الثانية", "amended", "suspected_short", "أ- جديد"}, arts[2])

	ams := sheetRows(t, f, SheetAmendments)
	require.Len(t, ams, 2)
	assert.Equal(t, []string{"2", "م/5", "1441/1/1", "royal_decree", "أ", "جديد", ""}, ams[1])

	fds := sheetRows(t, f, SheetFindings)
	assert.Equal(t, findingHeader, fds[0])
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportLaw()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	arts := sheetRows(t, f, SheetArticles)
	require.Len(t, arts, 3)
	assert.Equal(t, "1", arts[1][0])
}

func TestWorkbook_UnknownNumber(t *testing.T) {
	law := exportLaw()
	law.Articles[0].Number = nil
	f, err := Workbook(law)
	require.NoError(t, err)
	assert.Equal(t, "", sheetRows(t, f, SheetArticles)[1][0])
}

func TestWorkbook_TruncatesLongCells(t *testing.T) {
	law := exportLaw()
	law.Articles[0].CurrentText = strings.Repeat("ن", maxCellRunes+10)
	f, err := Workbook(law)
	require.NoError(t, err)
	cell := sheetRows(t, f, SheetArticles)[1][4]
	assert.Len(t, []rune(cell), maxCellRunes)
}

func TestWorkbook_NilLaw(t *testing.T) {
	_, err := Workbook(nil)
	assert.Error(t, err)
}
