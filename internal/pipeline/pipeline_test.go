package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/statute-cli/internal/fetcher"
	"github.com/sells-group/statute-cli/internal/lawparse"
	"github.com/sells-group/statute-cli/internal/store"
)

const (
	lawA = "aaaaaaaa-0000-4000-8000-000000000001"
	lawB = "aaaaaaaa-0000-4000-8000-000000000002"
	lawC = "aaaaaaaa-0000-4000-8000-000000000003"
)

const page = `<html><body>
<h1>نظام تجريبي</h1>
<div class="article_item">
	<h3>المادة الأولى</h3>
	<div class="HTMLContainer"><p>تسري أحكام هذا النظام على جميع المنشآت العاملة في المملكة.</p></div>
</div>
<div class="article_item changed-article">
	<h3>المادة الثانية</h3>
	<a class="ancArticlePrevVersions" data-articleid="5b7c0c1e-aa11-4f6b-9c0e-000000000002">التعديلات</a>
	<div class="HTMLContainer"><p>أ- نص قديم للفقرة الأولى</p><p>ب- نص آخر للفقرة الثانية</p></div>
</div>
<div class="popup-list 5b7c0c1e-aa11-4f6b-9c0e-000000000002">
	<div class="article_item_popup">
		<h3>تعديل المادة الثانية</h3>
		<div class="HTMLContainer">
			<p>عدلت الفقرة (أ) من هذه المادة بموجب المرسوم الملكي رقم (م/12) وتاريخ 1441/03/15هـ، لتكون بالنص الآتي: "نص جديد للفقرة".</p>
		</div>
		<a href="/Files/Download/?attId=1">المرسوم</a>
	</div>
</div>
</body></html>`

type fakeSource struct {
	mu        sync.Mutex
	pages     map[string]string
	folder    []fetcher.LawRef
	folderErr error
	fetched   []string
	pdfs      []string
	pdfErr    error
}

func (f *fakeSource) LawPage(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, id)
	p, ok := f.pages[id]
	if !ok {
		return nil, eris.Wrapf(fetcher.ErrNotFound, "fake: %s", id)
	}
	return []byte(p), nil
}

func (f *fakeSource) LawURL(id string) string {
	return "https://laws.example/" + id
}

func (f *fakeSource) FolderLaws(context.Context, int) ([]fetcher.LawRef, error) {
	return f.folder, f.folderErr
}

func (f *fakeSource) DownloadPDF(_ context.Context, url, path string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdfs = append(f.pdfs, url)
	if f.pdfErr != nil {
		return 0, f.pdfErr
	}
	return 200, os.WriteFile(path, []byte("%PDF-"+strings.Repeat("x", 195)), 0o644)
}

func newTestPipeline(t *testing.T, src *fakeSource, opts Options) (*Pipeline, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	parser := lawparse.New(lawparse.Options{Workers: 2, BaseURL: "https://laws.example"})
	return New(src, parser, st, opts), st
}

func TestRun(t *testing.T) {
	src := &fakeSource{pages: map[string]string{lawA: page}}
	p, st := newTestPipeline(t, src, Options{})

	res, err := p.Run(context.Background(), strings.ToUpper(lawA))
	require.NoError(t, err)
	assert.Equal(t, lawA, res.Law.ID)
	assert.Equal(t, "https://laws.example/"+lawA, res.Law.SourceURL)
	assert.Equal(t, 0, res.PDFs)
	assert.Equal(t, len(res.Findings), res.Summary.Total)

	got, err := st.GetLaw(context.Background(), lawA)
	require.NoError(t, err)
	require.Len(t, got.Articles, 2)
	a := got.Article(2)
	require.NotNil(t, a)
	assert.Equal(t, "أ- نص جديد للفقرة\nب- نص آخر للفقرة الثانية", a.CurrentText)
}

func TestRun_InvalidID(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeSource{}, Options{})
	_, err := p.Run(context.Background(), "not-a-law")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid law id")
}

func TestRun_FetchError(t *testing.T) {
	p, st := newTestPipeline(t, &fakeSource{}, Options{})
	_, err := p.Run(context.Background(), lawA)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcher.ErrNotFound)

	ok, err := st.HasLaw(context.Background(), lawA)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_DownloadsPDFs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pdf")
	src := &fakeSource{pages: map[string]string{lawA: page}}
	p, _ := newTestPipeline(t, src, Options{PDFDir: dir})

	res, err := p.Run(context.Background(), lawA)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PDFs)

	am := res.Law.Article(2).Amendments[0]
	want := filepath.Join(dir, lawA+"_art2_0.pdf")
	assert.Equal(t, want, am.PDFLocalPath)
	assert.FileExists(t, want)

	// Second run reuses the file on disk.
	_, err = p.Run(context.Background(), lawA)
	require.NoError(t, err)
	assert.Len(t, src.pdfs, 1)
}

func TestRun_PDFFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{pages: map[string]string{lawA: page}, pdfErr: eris.New("boom")}
	p, _ := newTestPipeline(t, src, Options{PDFDir: t.TempDir()})

	res, err := p.Run(context.Background(), lawA)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PDFs)
	assert.Empty(t, res.Law.Article(2).Amendments[0].PDFLocalPath)
}

func TestSyncFolder(t *testing.T) {
	src := &fakeSource{
		pages:  map[string]string{lawA: page, lawC: page},
		folder: []fetcher.LawRef{{ID: lawA}, {ID: lawB}, {ID: lawC}},
	}
	p, st := newTestPipeline(t, src, Options{Concurrency: 2})

	res, err := p.SyncFolder(context.Background(), 1, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Listed)
	assert.Equal(t, 2, res.Extracted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{lawB}, res.FailedIDs)

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunComplete, runs[0].Status)
	assert.Equal(t, "folder:1", runs[0].Scope)
	assert.Equal(t, 2, runs[0].Extracted)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestSyncFolder_ResumeAndLimit(t *testing.T) {
	src := &fakeSource{
		pages:  map[string]string{lawA: page, lawB: page, lawC: page},
		folder: []fetcher.LawRef{{ID: lawA}, {ID: lawB}, {ID: lawC}},
	}
	p, _ := newTestPipeline(t, src, Options{Concurrency: 1})

	_, err := p.Run(context.Background(), lawA)
	require.NoError(t, err)
	src.fetched = nil

	res, err := p.SyncFolder(context.Background(), 2, SyncOptions{Resume: true, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Extracted)
	assert.Equal(t, []string{lawB}, src.fetched)
}

func TestSyncFolder_UnknownFolder(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeSource{}, Options{})
	_, err := p.SyncFolder(context.Background(), 7, SyncOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown folder")
}

func TestSyncFolder_ListError(t *testing.T) {
	src := &fakeSource{folderErr: eris.New("down")}
	p, st := newTestPipeline(t, src, Options{})

	_, err := p.SyncFolder(context.Background(), 1, SyncOptions{})
	require.Error(t, err)

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunFailed, runs[0].Status)
}

func TestSyncFolder_Canceled(t *testing.T) {
	src := &fakeSource{
		pages:  map[string]string{lawA: page},
		folder: []fetcher.LawRef{{ID: lawA}},
	}
	p, _ := newTestPipeline(t, src, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.SyncFolder(ctx, 1, SyncOptions{})
	require.Error(t, err)
}

func TestSyncAll(t *testing.T) {
	src := &fakeSource{
		pages:  map[string]string{lawA: page},
		folder: []fetcher.LawRef{{ID: lawA}},
	}
	p, _ := newTestPipeline(t, src, Options{})

	results, err := p.SyncAll(context.Background(), nil, SyncOptions{Resume: true})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, 1, results[0].Extracted)
	for _, r := range results[1:] {
		assert.Equal(t, 1, r.Skipped)
	}
}
