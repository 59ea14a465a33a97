package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/statute-cli/internal/audit"
	"github.com/sells-group/statute-cli/internal/lawparse"
	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/store"
)

const lawID = "16b97fcb-4833-4f66-8531-a9a700f161b6"

const page = `<html><body>
<h1>نظام تجريبي</h1>
<div class="article_item">
	<h3>المادة الأولى</h3>
	<div class="HTMLContainer"><p>تسري أحكام هذا النظام على جميع المنشآت العاملة في المملكة.</p></div>
</div>
</body></html>`

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	law := &model.Law{
		ID:            lawID,
		Name:          "نظام العمل",
		Status:        "ساري",
		TotalArticles: 2,
		Articles: []model.Article{
			{Number: model.IntPtr(1), NumberText: "المادة الأولى", Status: model.StatusActive, CurrentText: "نص"},
			{Number: model.IntPtr(3), NumberText: "المادة الثالثة", Status: model.StatusActive, CurrentText: "نص آخر"},
		},
	}
	require.NoError(t, st.SaveLaw(context.Background(), law))

	return New(st, lawparse.New(lawparse.Options{Workers: 1}), nil), st
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListLaws(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/laws?status="+url.QueryEscape("ساري")+"&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []store.LawSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, lawID, got[0].ID)
	assert.Equal(t, 2, got[0].ArticleCount)
}

func TestListLaws_EmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/laws?amended=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListLaws_BadParams(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{"/laws?limit=abc", "/laws?offset=-1", "/laws?amended=maybe"} {
		rec := do(t, s.Router(), http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetLaw(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/laws/"+lawID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var law model.Law
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &law))
	assert.Equal(t, "نظام العمل", law.Name)

	rec = do(t, s.Router(), http.MethodGet, "/laws/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetArticle(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/laws/"+lawID+"/articles/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var a model.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "نص آخر", a.CurrentText)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/laws/"+lawID+"/articles/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/laws/"+lawID+"/articles/x", "").Code)
}

func TestAudit(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/laws/"+lawID+"/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp auditResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, lawID, resp.LawID)
	assert.Equal(t, 2, resp.Stats.Articles)

	var codes []audit.Code
	for _, f := range resp.Findings {
		codes = append(codes, f.Code)
	}
	assert.Contains(t, codes, audit.CodeNumberGaps)
	assert.Equal(t, len(resp.Findings), resp.Summary.Total)
}

func TestParse(t *testing.T) {
	s, st := newTestServer(t)
	rec := do(t, s.Router(), http.MethodPost, "/parse?law_id=tmp-law", page)
	require.Equal(t, http.StatusOK, rec.Code)

	var law model.Law
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &law))
	assert.Equal(t, "tmp-law", law.ID)
	assert.Equal(t, "نظام تجريبي", law.Name)
	require.Len(t, law.Articles, 1)
	assert.Equal(t, 1, *law.Articles[0].Number)

	ok, err := st.HasLaw(context.Background(), "tmp-law")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCORS(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	h := New(st, lawparse.New(lawparse.Options{}), []string{"https://example.com"}).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
