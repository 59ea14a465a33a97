package model

// ParagraphType distinguishes running text from tabular payloads.
type ParagraphType string

const (
	ParagraphText  ParagraphType = "text"
	ParagraphTable ParagraphType = "table"
)

// Paragraph levels.
const (
	LevelClause  = 0 // unmarked prose, ordinal-word clause, definition
	LevelItem    = 1 // numbered item
	LevelSubItem = 2 // lettered sub-item
)

// Paragraph is one structural unit of an article body.
type Paragraph struct {
	Marker    string        `json:"marker"`
	Text      string        `json:"text"`
	Level     int           `json:"level"`
	Type      ParagraphType `json:"type"`
	TableRows [][]string    `json:"table_rows,omitempty"`
}

// TextLength returns the total rune count of paragraph texts, counting table
// cells for table paragraphs.
func TextLength(paras []Paragraph) int {
	n := 0
	for _, p := range paras {
		n += len([]rune(p.Text))
		for _, row := range p.TableRows {
			for _, cell := range row {
				n += len([]rune(cell))
			}
		}
	}
	return n
}
