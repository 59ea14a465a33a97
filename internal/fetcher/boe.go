package fetcher

import (
	"bytes"
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/statute-cli/internal/textnorm"
)

// DefaultBaseURL is the statute site root.
const DefaultBaseURL = "https://laws.boe.gov.sa"

// MinPDFBytes is the smallest body accepted as an amendment document;
// anything shorter is an error page.
const MinPDFBytes = 100

// Folder is one of the site's law categories.
type Folder struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var folders = []Folder{
	{ID: 1, Name: "أنظمة أساسية"},
	{ID: 2, Name: "أنظمة عادية"},
	{ID: 3, Name: "لوائح وما في حكمها"},
	{ID: 4, Name: "تنظيمات، وترتيبات تنظيمية"},
}

// Folders returns the law categories in site order.
func Folders() []Folder {
	return append([]Folder(nil), folders...)
}

// FolderByID looks up a category.
func FolderByID(id int) (Folder, bool) {
	for _, f := range folders {
		if f.ID == id {
			return f, true
		}
	}
	return Folder{}, false
}

// LawRef identifies a law listed in a folder.
type LawRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var lawDetailsRe = regexp.MustCompile(`/LawDetails/([a-fA-F0-9-]+)/`)

// BOE is a client for the statute site.
type BOE struct {
	f    Fetcher
	base string
}

// NewBOE creates a client over f. An empty baseURL selects DefaultBaseURL.
func NewBOE(f Fetcher, baseURL string) *BOE {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &BOE{f: f, base: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the site root used to resolve links.
func (b *BOE) BaseURL() string {
	return b.base
}

// ValidateLawID normalizes a law ID. IDs are GUIDs.
func ValidateLawID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: invalid law id %q", id)
	}
	return u.String(), nil
}

// LawURL returns the details page URL of a law.
func (b *BOE) LawURL(id string) string {
	return b.base + "/BoeLaws/Laws/LawDetails/" + id + "/1"
}

// FolderURL returns the listing page URL of a folder.
func (b *BOE) FolderURL(folder int) string {
	return b.base + "/BoeLaws/Laws/Folders/" + strconv.Itoa(folder)
}

// LawPage fetches the details page of a law.
func (b *BOE) LawPage(ctx context.Context, id string) ([]byte, error) {
	id, err := ValidateLawID(id)
	if err != nil {
		return nil, err
	}
	data, err := b.f.Get(ctx, b.LawURL(id))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: law page %s", id)
	}
	return data, nil
}

// FolderLaws lists the laws linked from a folder page, deduplicated in page
// order.
func (b *BOE) FolderLaws(ctx context.Context, folder int) ([]LawRef, error) {
	data, err := b.f.Get(ctx, b.FolderURL(folder))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: folder %d", folder)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse folder %d", folder)
	}

	seen := make(map[string]bool)
	var laws []LawRef
	doc.Find(`a[href*="/BoeLaws/Laws/LawDetails/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := lawDetailsRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := strings.ToLower(m[1])
		if seen[id] {
			return
		}
		seen[id] = true
		laws = append(laws, LawRef{ID: id, Name: textnorm.Clean(a.Text())})
	})

	zap.L().Debug("listed folder laws", zap.Int("folder", folder), zap.Int("laws", len(laws)))
	return laws, nil
}

// DownloadPDF saves an amendment document to path. Bodies shorter than
// MinPDFBytes are rejected and the partial file removed.
func (b *BOE) DownloadPDF(ctx context.Context, url, path string) (int64, error) {
	n, err := b.f.DownloadToFile(ctx, url, path)
	if err != nil {
		_ = os.Remove(path)
		return 0, eris.Wrapf(err, "fetcher: pdf %s", url)
	}
	if n < MinPDFBytes {
		_ = os.Remove(path)
		return 0, eris.Errorf("fetcher: pdf %s too small (%d bytes)", url, n)
	}
	return n, nil
}
