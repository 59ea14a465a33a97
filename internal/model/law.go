package model

// HeadingType identifies a document-level grouping label above articles.
type HeadingType string

const (
	HeadingPart       HeadingType = "part"
	HeadingSection    HeadingType = "section"
	HeadingChapter    HeadingType = "chapter"
	HeadingSubchapter HeadingType = "subchapter"
	HeadingAppendix   HeadingType = "appendix"
)

// Order returns the nesting depth of the heading type. Parts and appendices
// sit at the top, chapters and sections below them, subchapters deepest.
func (h HeadingType) Order() int {
	switch h {
	case HeadingSection, HeadingChapter:
		return 1
	case HeadingSubchapter:
		return 2
	default:
		return 0
	}
}

// StructuralHeading is a Part/Chapter/Section label in document order.
type StructuralHeading struct {
	Type  HeadingType `json:"type"`
	Text  string      `json:"text"`
	Order int         `json:"order"`
}

// RoyalDecree holds the issuing decree found in the law preamble.
type RoyalDecree struct {
	Text      string `json:"text"`
	Number    string `json:"number,omitempty"`
	DateHijri string `json:"date_hijri,omitempty"`
}

// Law is the structured result of one statute page.
type Law struct {
	ID                   string `json:"law_id"`
	Name                 string `json:"law_name"`
	IssuingAuthority     string `json:"issuing_authority"`
	IssueDateHijri       string `json:"issue_date_hijri"`
	IssueDateGregorian   string `json:"issue_date_gregorian"`
	PublishDateHijri     string `json:"publish_date_hijri"`
	PublishDateGregorian string `json:"publish_date_gregorian"`
	Status               string `json:"status"`
	SourceURL            string `json:"source_url,omitempty"`

	RoyalDecree         *RoyalDecree `json:"royal_decree,omitempty"`
	CabinetDecisionText string       `json:"cabinet_decision_text,omitempty"`

	Structure     []StructuralHeading `json:"structure"`
	TotalArticles int                 `json:"total_articles"`
	Articles      []Article           `json:"articles"`
}

// LawStats counts articles by status.
type LawStats struct {
	Articles int `json:"articles"`
	Amended  int `json:"amended"`
	Canceled int `json:"canceled"`
	Flagged  int `json:"flagged"`
}

// Stats returns article counts for the law.
func (l *Law) Stats() LawStats {
	var s LawStats
	for i := range l.Articles {
		a := &l.Articles[i]
		s.Articles++
		switch a.Status {
		case StatusAmended:
			s.Amended++
		case StatusCanceled:
			s.Canceled++
		}
		if len(a.QualityFlags) > 0 {
			s.Flagged++
		}
	}
	return s
}

// Article returns the first article with the given number, or nil.
func (l *Law) Article(number int) *Article {
	for i := range l.Articles {
		if n := l.Articles[i].Number; n != nil && *n == number {
			return &l.Articles[i]
		}
	}
	return nil
}
