package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codewithboateng/trendline/internal/gate"
	"github.com/codewithboateng/trendline/internal/history"
	"github.com/codewithboateng/trendline/internal/model"
	"github.com/codewithboateng/trendline/internal/reporting"
	"github.com/codewithboateng/trendline/internal/storage"
)

// Store is the minimal contract the API needs.
type Store interface {
	ListBuilds(job string, limit, offset int) ([]storage.BuildRow, error)
	LoadBuild(job string, number int) (storage.BuildRow, error)
	LatestBuild(job string) (storage.BuildRow, error)
	LoadResult(job string, number int, tool string) (storage.ResultRow, error)

	ListExclusions(activeOnly bool) ([]storage.Exclusion, error)
	CreateExclusion(tool, category, pattern, reason, createdBy string, expires time.Time) (string, error)
	RevokeExclusion(id, by string) error
}

// HistoryProvider supplies walkable chain links for history queries.
type HistoryProvider interface {
	Build(job string, number int) (model.Build, error)
	Selector(tool string) model.ResultSelector
}

// UserStore is the auth/audit contract the API uses.
type UserStore interface {
	GetUserByUsername(string) (storage.User, string, error)
	CreateSession(int64, string, time.Time) error
	GetSession(string) (storage.User, error)
	DeleteSession(string) error
	LogAudit(username, action, resource string, meta map[string]any) error
}

type Server struct {
	DB              Store
	Chain           HistoryProvider
	UserStore       UserStore
	Logger          *slog.Logger
	AllowedOrigins  []string
	SessionDuration time.Duration

	// History defaults; per-request query params can override.
	DefaultTool      string
	UsePreviousBuild bool
	UseStableBuild   bool
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	withCORS := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h(w, r)
		}
	}

	// Health
	mux.HandleFunc("GET /api/v1/health", withCORS(s.handleHealth))

	// Auth
	mux.HandleFunc("POST /api/v1/auth/login", withCORS(s.handleLogin))
	mux.HandleFunc("POST /api/v1/auth/logout", withCORS(withAuth(s, s.handleLogout, "auth:logout")))
	mux.HandleFunc("GET /api/v1/me", withCORS(withAuth(s, s.handleMe, "me")))

	// Builds & history
	mux.HandleFunc("GET /api/v1/jobs/{job}/builds", withCORS(s.handleListBuilds))
	mux.HandleFunc("GET /api/v1/jobs/{job}/builds/latest", withCORS(s.handleLatestBuild))
	mux.HandleFunc("GET /api/v1/jobs/{job}/builds/{number}", withCORS(s.handleGetBuild))
	mux.HandleFunc("GET /api/v1/jobs/{job}/builds/{number}/result", withCORS(s.handleGetResult))
	mux.HandleFunc("GET /api/v1/jobs/{job}/builds/{number}/previous", withCORS(s.handlePrevious))
	mux.HandleFunc("GET /api/v1/jobs/{job}/builds/{number}/reference", withCORS(s.handleReference))
	mux.HandleFunc("GET /api/v1/jobs/{job}/builds/{number}/trend", withCORS(s.handleTrend))

	// Gates inventory
	mux.HandleFunc("GET /api/v1/gates", withCORS(s.handleGates))

	// Exclusions
	mux.HandleFunc("GET /api/v1/exclusions", withCORS(withAuth(s, s.handleListExclusions, "exclusions:list")))
	mux.HandleFunc("POST /api/v1/exclusions", withCORS(withAdmin(s, s.handleCreateExclusion, "exclusions:create")))
	mux.HandleFunc("POST /api/v1/exclusions/{id}/revoke", withCORS(withAdmin(s, s.handleRevokeExclusion, "exclusions:revoke")))

	// Fallback 404
	mux.HandleFunc("/", withCORS(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	job := r.PathValue("job")
	q := r.URL.Query()
	limit := clamp(parseInt(q.Get("limit"), 20), 1, 200)
	offset := parseInt(q.Get("offset"), 0)

	rows, err := s.DB.ListBuilds(job, limit, offset)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job": job, "items": rows, "limit": limit, "offset": offset,
	})
}

func (s *Server) handleLatestBuild(w http.ResponseWriter, r *http.Request) {
	b, err := s.DB.LatestBuild(r.PathValue("job"))
	if err != nil {
		s.err(w, http.StatusNotFound, "no builds")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	job, number, ok := s.buildParams(w, r)
	if !ok {
		return
	}
	b, err := s.DB.LoadBuild(job, number)
	if err != nil {
		s.err(w, http.StatusNotFound, "build not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	job, number, ok := s.buildParams(w, r)
	if !ok {
		return
	}
	res, err := s.DB.LoadResult(job, number, s.tool(r))
	if err != nil {
		s.err(w, http.StatusNotFound, "result not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	job, number, ok := s.buildParams(w, r)
	if !ok {
		return
	}
	baseline, err := s.Chain.Build(job, number)
	if err != nil {
		s.err(w, http.StatusNotFound, "build not found")
		return
	}
	h := history.NewHistory(baseline, s.Chain.Selector(s.tool(r)))
	result, err := h.PreviousResult()
	if err != nil {
		if errors.Is(err, history.ErrNoPreviousResult) {
			s.err(w, http.StatusNotFound, "no previous result")
			return
		}
		s.err(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resultView(result))
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	job, number, ok := s.buildParams(w, r)
	if !ok {
		return
	}
	baseline, err := s.Chain.Build(job, number)
	if err != nil {
		s.err(w, http.StatusNotFound, "build not found")
		return
	}
	resolver := s.resolver(r, baseline)
	ref, ok := resolver.Reference()
	if !ok {
		s.err(w, http.StatusNotFound, "no reference build")
		return
	}
	status, _ := ref.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"job":        ref.Job(),
		"number":     ref.Number(),
		"status":     status.String(),
		"started_at": ref.StartedAt(),
		"strategy":   resolver.Strategy().String(),
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	job, number, ok := s.buildParams(w, r)
	if !ok {
		return
	}
	tool := s.tool(r)
	baseline, err := s.Chain.Build(job, number)
	if err != nil {
		s.err(w, http.StatusNotFound, "build not found")
		return
	}
	current := s.Chain.Selector(tool).Select(baseline)
	if current == nil {
		s.err(w, http.StatusNotFound, "no result for tool "+tool)
		return
	}

	resolver := s.resolver(r, baseline)
	ref, hasRef := resolver.Reference()
	delta := reporting.BaselineDelta(current.Issues)
	referenceBuild := 0
	if hasRef {
		delta = reporting.Delta(resolver.Issues(), current.Issues)
		referenceBuild = ref.Number()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":             job,
		"build":           number,
		"tool":            tool,
		"has_reference":   hasRef,
		"reference_build": referenceBuild,
		"summary":         delta.Summary(),
		"new":             delta.New,
		"fixed":           delta.Fixed,
		"outstanding":     delta.Outstanding,
	})
}

// GET /api/v1/gates (IDs + summaries; no auth needed for read-only)
func (s *Server) handleGates(w http.ResponseWriter, r *http.Request) {
	type G struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
	}
	var out []G
	for _, g := range gate.List() {
		out = append(out, G{ID: g.ID, Summary: g.Summary})
	}
	// stable order already guaranteed by gate.List()
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

// resolver builds a reference resolver for the request: query params win
// over the server defaults.
func (s *Server) resolver(r *http.Request, baseline model.Build) *history.Resolver {
	usePrevious := s.UsePreviousBuild
	useStable := s.UseStableBuild
	q := r.URL.Query()
	switch strings.ToLower(q.Get("strategy")) {
	case "previous-build":
		usePrevious = true
	case "stable-plugin":
		usePrevious = false
	}
	if v := q.Get("stable"); v != "" {
		useStable = v == "1" || v == "true" || v == "yes"
	}
	return history.NewResolver(baseline, s.Chain.Selector(s.tool(r)), usePrevious, useStable)
}

func (s *Server) tool(r *http.Request) string {
	if tool := strings.TrimSpace(r.URL.Query().Get("tool")); tool != "" {
		return tool
	}
	return s.DefaultTool
}

func (s *Server) buildParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	job := r.PathValue("job")
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number <= 0 {
		s.err(w, http.StatusBadRequest, "invalid build number")
		return "", 0, false
	}
	return job, number, true
}

func resultView(result *model.Result) map[string]any {
	return map[string]any{
		"job":           result.Build.Job(),
		"build":         result.Build.Number(),
		"tool":          result.Tool,
		"plugin_status": result.PluginStatus.String(),
		"successful":    result.Successful,
		"health":        result.Health,
		"issue_count":   result.Issues.Size(),
		"issues":        result.Issues.Issues(),
	}
}

func (s *Server) err(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
