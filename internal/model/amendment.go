package model

// AmendmentSource classifies the instrument that issued an amendment.
type AmendmentSource string

const (
	SourceRoyalDecree     AmendmentSource = "royal_decree"
	SourceCabinetDecision AmendmentSource = "cabinet_decision"
	SourceUnknown         AmendmentSource = "unknown"
)

// ContentKind tags a segment of an amendment notice.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentTable ContentKind = "table"
)

// ContentPart is one prose or table segment of an amendment notice, kept in
// document order so renderers can alternate them.
type ContentPart struct {
	Type      ContentKind `json:"type"`
	Text      string      `json:"text,omitempty"`
	TableRows [][]string  `json:"table_rows,omitempty"`
}

// Amendment is one decree-issued change recorded against an article. Every
// field except Description may be empty.
type Amendment struct {
	Title             string          `json:"title,omitempty"`
	Decree            string          `json:"decree,omitempty"`
	Date              string          `json:"date,omitempty"`
	Source            AmendmentSource `json:"source"`
	AffectedParagraph string          `json:"affected_paragraph,omitempty"`
	NewText           string          `json:"new_text,omitempty"`
	Description       string          `json:"description"`
	ContentParts      []ContentPart   `json:"content_parts,omitempty"`
	PDFURL            string          `json:"pdf_url,omitempty"`
	PDFLabel          string          `json:"pdf_label,omitempty"`
	PDFLocalPath      string          `json:"pdf_local_path,omitempty"`
}

// Applicable reports whether the amendment carries enough information to
// patch article text.
func (a Amendment) Applicable() bool {
	return a.AffectedParagraph != "" && a.NewText != ""
}

// OutcomeKind records what the applicator did with one amendment.
type OutcomeKind string

const (
	OutcomeApplied           OutcomeKind = "applied"
	OutcomeSkippedIncomplete OutcomeKind = "skipped_incomplete"
	OutcomeSkippedNotFound   OutcomeKind = "skipped_not_found"
)

// Outcome is the applicator's verdict for the amendment at Index.
type Outcome struct {
	Index  int         `json:"index"`
	Marker string      `json:"marker,omitempty"`
	Kind   OutcomeKind `json:"kind"`
}
