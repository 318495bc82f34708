package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docsplit/internal/chapter"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/document"
	"github.com/dgallion1/docsplit/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// upload is a parsed multipart request carrying a document.
type upload struct {
	filename string
	data     []byte
	outline  []doctree.Entry
	dedupe   bool
	ranges   chapter.RangePolicy
}

// readUpload parses the multipart form shared by /api/chapters and
// /api/export. On failure it has already written the error response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !document.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, false
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}

	u := &upload{filename: filename, data: data, dedupe: s.cfg.Dedupe, ranges: s.cfg.RangePolicy}

	if v := r.FormValue("dedupe"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "dedupe must be true or false", http.StatusBadRequest)
			return nil, false
		}
		u.dedupe = b
	}
	if v := r.FormValue("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "strict must be true or false", http.StatusBadRequest)
			return nil, false
		}
		u.ranges = chapter.RangesAccept
		if b {
			u.ranges = chapter.RangesReject
		}
	}

	if outline, _, err := r.FormFile("outline"); err == nil {
		defer outline.Close()
		entries, err := document.ReadOutlineCSV(outline)
		if err != nil {
			jsonError(w, "invalid outline: "+err.Error(), http.StatusBadRequest)
			return nil, false
		}
		u.outline = entries
	} else if v := r.FormValue("outline"); v != "" {
		entries, err := document.ReadOutlineCSV(strings.NewReader(v))
		if err != nil {
			jsonError(w, "invalid outline: "+err.Error(), http.StatusBadRequest)
			return nil, false
		}
		u.outline = entries
	}

	return u, true
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	u, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	layout, err := s.orchestrator.Preview(u.filename, u.data, u.outline, u.ranges)
	if err != nil {
		s.log.Info("chapter preview failed", "filename", u.filename, "error", err)
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename": u.filename,
		"pages":    layout.Pages,
		"chapters": layout.Chapters,
		"problems": layout.Problems,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	u, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job, err := pipeline.NewJob(u.filename, u.data, pipeline.JobOptions{Dedupe: u.dedupe, Ranges: u.ranges})
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if u.outline != nil {
		job.SetOutline(u.outline)
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s/status", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()

	// Chapters that share a name share one file on disk.
	files := make([]string, 0, len(snap.Chapters))
	seen := make(map[string]bool, len(snap.Chapters))
	for _, c := range snap.Chapters {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		files = append(files, fmt.Sprintf("/api/jobs/%s/files/%s", snap.ID, url.PathEscape(c.Name+".txt")))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"filename": snap.Filename,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
		"chapters": snap.Chapters,
		"files":    files,
	})
}

func (s *Server) handleJobFile(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	// Only names the export recorded are served, never a client path.
	// Sanitized names never hold '%', so unescaping is unambiguous.
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	c, ok := job.File(name)
	if !ok {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		jsonError(w, "file not available", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.Name+".txt"))
	http.ServeContent(w, r, c.Name+".txt", job.Snapshot().UpdatedAt, bytes.NewReader(data))
}

// errorStatus maps pipeline errors to HTTP status codes.
func errorStatus(err error) int {
	for _, target := range []error{
		document.ErrOpen,
		document.ErrOutlineUnavailable,
		document.ErrPageCountUnavailable,
		chapter.ErrNoChaptersFound,
		chapter.ErrDegenerateRange,
	} {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
