// Package audit flags structurally suspicious articles and checks whole laws
// for completeness. Nothing here mutates its input.
package audit

import (
	"regexp"
	"strings"

	"github.com/sells-group/statute-cli/internal/model"
)

// MinArticleRunes is the shortest body a non-canceled article may have
// before it is flagged as a likely parse failure.
const MinArticleRunes = 20

// innerHeading matches an "المادة ال..." heading inside article text.
var innerHeading = regexp.MustCompile(`المادة\s+ال[\x{0623}-\x{064A}]+`)

// ArticleFlags returns the quality flags for an article in a stable order.
func ArticleFlags(a *model.Article) []model.QualityFlag {
	var flags []model.QualityFlag
	text := strings.TrimSpace(a.OriginalText)
	if a.Status != model.StatusCanceled && len([]rune(text)) < MinArticleRunes {
		flags = append(flags, model.FlagSuspectedShort)
	}
	if text != "" && a.Number != nil && len(innerHeading.FindAllString(text, 2)) > 1 {
		flags = append(flags, model.FlagSuspectedScramble)
	}
	return flags
}
