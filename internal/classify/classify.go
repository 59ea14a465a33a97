// Package classify reads an article's lifecycle status and number from its
// markup and isolates the authoritative text container.
package classify

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/numeral"
	"github.com/sells-group/statute-cli/internal/textnorm"
)

// Markup hooks used by the statute pages.
const (
	ClassCanceled  = "canceled"
	ClassAmended   = "changed-article"
	ClassContainer = "HTMLContainer"
	ClassPopup     = "popup-list"
	ClassHistory   = "ancArticlePrevVersions"

	articleWord = "المادة"
)

// ErrNoContainer is returned when an article has no text container outside
// its amendment history popup.
var ErrNoContainer = eris.New("classify: no text container outside amendment popup")

// Result is the classification of one article subtree.
type Result struct {
	Status     model.ArticleStatus
	Number     *int
	NumberText string
	Container  *goquery.Selection
}

// Classify inspects one article subtree. The subtree is only read.
func Classify(article *goquery.Selection) (Result, error) {
	r := Result{
		Status:     Status(article),
		NumberText: textnorm.Clean(Heading(article).Text()),
	}
	if strings.Contains(r.NumberText, articleWord) {
		if n, ok := numeral.Resolve(r.NumberText); ok {
			r.Number = model.IntPtr(n)
		}
	}

	c := Container(article)
	if c == nil {
		return r, ErrNoContainer
	}
	r.Container = c
	return r, nil
}

// Status reads the lifecycle status from the article's class list. A
// canceled marker wins over an amended one. Markers match anywhere in the
// class attribute, so variants like "canceled-article" count.
func Status(article *goquery.Selection) model.ArticleStatus {
	class, _ := article.Attr("class")
	switch {
	case strings.Contains(class, ClassCanceled):
		return model.StatusCanceled
	case strings.Contains(class, ClassAmended):
		return model.StatusAmended
	default:
		return model.StatusActive
	}
}

// Heading returns the first h3 of article outside any history popup. The
// selection is empty when there is none.
func Heading(article *goquery.Selection) *goquery.Selection {
	return article.Find("h3").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return !insidePopup(h, article)
	}).First()
}

// Container returns the first text container of article that has no popup
// ancestor between it and the article root, or nil. The result is a detached
// copy with any nested popups and history links removed; the document is
// not modified.
func Container(article *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	article.Find("div." + ClassContainer).EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if insidePopup(c, article) {
			return true
		}
		found = c
		return false
	})
	if found == nil {
		return nil
	}
	clean := found.Clone()
	clean.Find("div." + ClassPopup + ", a." + ClassHistory).Remove()
	return clean
}

// insidePopup reports whether a popup region sits between sel and root.
func insidePopup(sel, root *goquery.Selection) bool {
	return sel.ParentsUntilSelection(root).Filter("div."+ClassPopup).Length() > 0
}
