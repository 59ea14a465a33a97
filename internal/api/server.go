// Package api serves the law library over a read-only HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/statute-cli/internal/audit"
	"github.com/sells-group/statute-cli/internal/lawparse"
	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/store"
)

// maxParseBody caps POST /parse request bodies.
const maxParseBody = 20 << 20

// Server exposes stored laws and on-demand parsing.
type Server struct {
	store   store.Store
	parser  *lawparse.Parser
	origins []string
}

// New creates a Server. An empty origins list allows any origin.
func New(st store.Store, parser *lawparse.Parser, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{store: st, parser: parser, origins: origins}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/parse", s.handleParse)
	r.Route("/laws", func(r chi.Router) {
		r.Get("/", s.handleListLaws)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLaw)
			r.Get("/audit", s.handleAudit)
			r.Get("/articles/{number}", s.handleGetArticle)
		})
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "api: listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "api: shutdown")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListLaws(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LawFilter{
		Status:   q.Get("status"),
		NameLike: q.Get("q"),
	}
	var err error
	if v := q.Get("amended"); v != "" {
		if filter.AmendedOnly, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid amended flag")
			return
		}
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	laws, err := s.store.ListLaws(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if laws == nil {
		laws = []store.LawSummary{}
	}
	writeJSON(w, http.StatusOK, laws)
}

func (s *Server) handleGetLaw(w http.ResponseWriter, r *http.Request) {
	law, ok := s.loadLaw(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, law)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "invalid article number")
		return
	}
	law, ok := s.loadLaw(w, r)
	if !ok {
		return
	}
	a := law.Article(n)
	if a == nil {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type auditResponse struct {
	LawID    string          `json:"law_id"`
	Stats    model.LawStats  `json:"stats"`
	Summary  audit.Summary   `json:"summary"`
	Findings []audit.Finding `json:"findings"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	law, ok := s.loadLaw(w, r)
	if !ok {
		return
	}
	findings := audit.LawFindings(law)
	if findings == nil {
		findings = []audit.Finding{}
	}
	writeJSON(w, http.StatusOK, auditResponse{
		LawID:    law.ID,
		Stats:    law.Stats(),
		Summary:  audit.Summarize(findings),
		Findings: findings,
	})
}

// handleParse parses an HTML page from the request body without storing it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxParseBody)
	law, err := s.parser.ParseHTML(r.Context(), body, r.URL.Query().Get("law_id"))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, law)
}

func (s *Server) loadLaw(w http.ResponseWriter, r *http.Request) (*model.Law, bool) {
	id := chi.URLParam(r, "id")
	law, err := s.store.GetLaw(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "law not found")
		return nil, false
	}
	if err != nil {
		s.internalError(w, r, err)
		return nil, false
	}
	return law, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("api request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("api: invalid integer %q", v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
