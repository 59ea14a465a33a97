// Package export renders stored laws into spreadsheet workbooks.
package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/statute-cli/internal/audit"
	"github.com/sells-group/statute-cli/internal/model"
)

// Sheet names.
const (
	SheetArticles   = "Articles"
	SheetAmendments = "Amendments"
	SheetFindings   = "Findings"
)

var (
	articleHeader   = []string{"number", "number_text", "status", "flags", "current_text"}
	amendmentHeader = []string{"article_number", "decree", "date", "source", "paragraph", "new_text", "pdf_url"}
	findingHeader   = []string{"severity", "code", "location", "message"}
)

// maxCellRunes is the Excel per-cell limit.
const maxCellRunes = 32767

// WriteXLSX writes a workbook describing law to w.
func WriteXLSX(w io.Writer, law *model.Law) error {
	f, err := Workbook(law)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// Workbook builds the in-memory workbook for law. Articles with an unknown
// number get an empty number cell.
func Workbook(law *model.Law) (*xlsx.File, error) {
	if law == nil {
		return nil, eris.New("export: nil law")
	}
	f := xlsx.NewFile()

	articles, err := f.AddSheet(SheetArticles)
	if err != nil {
		return nil, eris.Wrap(err, "export: add articles sheet")
	}
	addRow(articles, articleHeader...)
	for i := range law.Articles {
		a := &law.Articles[i]
		flags := make([]string, len(a.QualityFlags))
		for j, q := range a.QualityFlags {
			flags[j] = string(q)
		}
		addRow(articles, number(a.Number), a.NumberText, string(a.Status),
			strings.Join(flags, ","), a.CurrentText)
	}

	amendments, err := f.AddSheet(SheetAmendments)
	if err != nil {
		return nil, eris.Wrap(err, "export: add amendments sheet")
	}
	addRow(amendments, amendmentHeader...)
	for i := range law.Articles {
		a := &law.Articles[i]
		for _, am := range a.Amendments {
			addRow(amendments, number(a.Number), am.Decree, am.Date, string(am.Source),
				am.AffectedParagraph, am.NewText, am.PDFURL)
		}
	}

	findings, err := f.AddSheet(SheetFindings)
	if err != nil {
		return nil, eris.Wrap(err, "export: add findings sheet")
	}
	addRow(findings, findingHeader...)
	for _, fd := range audit.LawFindings(law) {
		addRow(findings, string(fd.Severity), string(fd.Code), fd.Location, fd.Message)
	}

	return f, nil
}

func number(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		if r := []rune(v); len(r) > maxCellRunes {
			v = string(r[:maxCellRunes])
		}
		row.AddCell().SetString(v)
	}
}
