package model

// ArticleStatus is the lifecycle state of an article.
type ArticleStatus string

const (
	StatusActive   ArticleStatus = "active"
	StatusAmended  ArticleStatus = "amended"
	StatusCanceled ArticleStatus = "canceled"
)

// QualityFlag is a diagnostic tag for manual review. Flags are never acted on
// automatically.
type QualityFlag string

const (
	FlagSuspectedShort    QualityFlag = "suspected_short"
	FlagSuspectedScramble QualityFlag = "suspected_scramble"
)

// Article is one numbered unit of a statute.
//
// Number is nil when the heading could not be resolved; consumers must treat
// that as an unknown position, not as zero.
type Article struct {
	Number         *int          `json:"number"`
	NumberText     string        `json:"number_text"`
	Status         ArticleStatus `json:"status"`
	OriginalText   string        `json:"original_text"`
	CurrentText    string        `json:"current_text"`
	Paragraphs     []Paragraph   `json:"paragraphs"`
	Amendments     []Amendment   `json:"amendments"`
	Outcomes       []Outcome     `json:"amendment_outcomes,omitempty"`
	QualityFlags   []QualityFlag `json:"quality_flags"`
	HeadingContext []string      `json:"heading_context,omitempty"`
}

// HasFlag reports whether the article carries the given quality flag.
func (a *Article) HasFlag(f QualityFlag) bool {
	for _, q := range a.QualityFlags {
		if q == f {
			return true
		}
	}
	return false
}

// Unapplied returns the outcomes of amendments that did not change the text.
func (a *Article) Unapplied() []Outcome {
	var out []Outcome
	for _, o := range a.Outcomes {
		if o.Kind != OutcomeApplied {
			out = append(out, o)
		}
	}
	return out
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
