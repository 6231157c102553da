package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/site-cloner/internal/clone"
	"github.com/jonathan/site-cloner/internal/db"
	"github.com/jonathan/site-cloner/internal/urls"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Cloned sites</title></head>
<body>
<h1>Cloned sites</h1>
{{if .}}<ul>
{{range .}}<li><a href="/{{.Slug}}">{{.Title}}</a> <small>{{.BaseURL}}</small></li>
{{end}}</ul>{{else}}<p>No sites cloned yet.</p>{{end}}
</body></html>
`))

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex lists every cloned site from the registry
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	entries, err := clone.ReadRegistry(s.outDir)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, entries); err != nil {
		log.Printf("Error rendering index: %v", err)
	}
}

// handleListSites returns the registry as JSON
func (s *Server) handleListSites(w http.ResponseWriter, _ *http.Request) {
	entries, err := clone.ReadRegistry(s.outDir)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, entries)
}

// handleSiteCompare returns the latest diff report of a site
func (s *Server) handleSiteCompare(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if !ValidSlug(slug) {
		s.errorResponse(w, &ErrSiteNotFound{Slug: slug})
		return
	}
	data, err := os.ReadFile(filepath.Join(s.outDir, slug, filepath.FromSlash(clone.CompareFile)))
	if errors.Is(err, os.ErrNotExist) {
		s.errorResponse(w, &ErrSiteNotFound{Slug: slug})
		return
	}
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck
}

// handlePage renders the captured page of a site
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	page, err := RenderPage(s.outDir, slug, s.siteTitle(slug))
	if err != nil {
		var notFound *ErrSiteNotFound
		if errors.As(err, &notFound) {
			http.NotFound(w, r)
			return
		}
		s.errorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page)) //nolint:errcheck
}

// handleStyles serves the combined stylesheet of a site
func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if !ValidSlug(slug) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	http.ServeFile(w, r, filepath.Join(s.outDir, slug, clone.StylesFile))
}

// handleSiteFile serves files below one directory of a site
func (s *Server) handleSiteFile(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		rel := r.PathValue("path")
		if !ValidSlug(slug) || rel == "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFileFS(w, r, os.DirFS(filepath.Join(s.outDir, slug)), dir+"/"+rel)
	}
}

// siteTitle returns the registry title for slug, if any
func (s *Server) siteTitle(slug string) string {
	entries, err := clone.ReadRegistry(s.outDir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.Slug == slug {
			return e.Title
		}
	}
	return ""
}

// CloneRequest is the body of POST /api/clone
type CloneRequest struct {
	URL string `json:"url"`
}

// handleClone runs a clone and streams its progress as server-sent events
func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	if s.clone == nil {
		s.errorResponse(w, ErrCloneDisabled)
		return
	}

	var req CloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.errorResponse(w, &ErrValidation{Field: "url", Message: "is required"})
		return
	}
	if !urls.HasWebScheme(req.URL) {
		s.errorResponse(w, &ErrValidation{Field: "url", Message: "must start with http:// or https://"})
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	res, err := s.clone(r.Context(), req.URL, sse.WriteProgress)
	if err != nil {
		log.Printf("Clone of %s failed: %v", req.URL, err)
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(res.Summary)
}

// handleListRuns lists stored runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, ErrStoreDisabled)
		return
	}

	filters := db.RunFilters{
		Slug:   r.URL.Query().Get("slug"),
		Status: r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.errorResponse(w, &ErrValidation{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		filters.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

// handleGetRun returns one stored run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}
	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if run == nil {
		s.errorResponse(w, db.ErrRunNotFound)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleDeleteRun removes a stored run and its artifacts
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRunArtifact returns one stored artifact in its native content type
func (s *Server) handleRunArtifact(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}
	step := r.PathValue("step")
	ctx := r.Context()

	switch step {
	case db.StepScreenshotOriginal, db.StepScreenshotLocal:
		data, err := s.store.GetBlobArtifact(ctx, runID, step)
		s.writeArtifact(w, step, "image/png", data, err)
	case db.StepOriginalHTML:
		text, err := s.store.GetTextArtifact(ctx, runID, step)
		s.writeArtifact(w, step, "text/html; charset=utf-8", []byte(text), err)
	case db.StepOriginalStyles:
		text, err := s.store.GetTextArtifact(ctx, runID, step)
		s.writeArtifact(w, step, "text/css; charset=utf-8", []byte(text), err)
	default:
		data, err := s.store.GetArtifact(ctx, runID, step)
		s.writeArtifact(w, step, "application/json", data, err)
	}
}

func (s *Server) writeArtifact(w http.ResponseWriter, step, contentType string, data []byte, err error) {
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if len(data) == 0 {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "artifact not found: " + step})
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data) //nolint:errcheck
}

// runID parses the {id} path value, writing the error response when it fails
func (s *Server) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.store == nil {
		s.errorResponse(w, ErrStoreDisabled)
		return uuid.Nil, false
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return uuid.Nil, false
	}
	return runID, true
}
