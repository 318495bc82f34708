package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docsplit/internal/chapter"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/export"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusOpening   JobStatus = "opening"
	StatusResolving JobStatus = "resolving"
	StatusExporting JobStatus = "exporting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// JobOptions are the per-upload settings of an export.
type JobOptions struct {
	Dedupe bool                `json:"dedupe"`
	Ranges chapter.RangePolicy `json:"ranges"`
}

// Job tracks the state of a single document export.
type Job struct {
	mu sync.Mutex

	ID       string     `json:"job_id"`
	Filename string     `json:"filename"`
	Options  JobOptions `json:"options"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`
	Chapters []export.ChapterResult `json:"chapters"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	outline  []doctree.Entry
	dir      string
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages      int      `json:"total_pages"`
	TotalChapters   int      `json:"total_chapters"`
	ChaptersWritten int      `json:"chapters_written"`
	SkippedPages    int      `json:"skipped_pages"`
	Errors          []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs and returns them so their output can be
// deleted.
func (s *JobStore) Cleanup() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var expired []*Job
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
			expired = append(expired, job)
		}
	}
	return expired
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetLayout records the page count and the number of resolved chapters.
func (j *Job) SetLayout(pages, chapters int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPages = pages
	j.Progress.TotalChapters = chapters
	j.UpdatedAt = time.Now()
}

// SetReport records the chapters an export wrote.
func (j *Job) SetReport(r *export.Report) {
	if r == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Chapters = r.Chapters
	j.Progress.ChaptersWritten = len(r.Chapters)
	j.Progress.SkippedPages = r.SkippedPages()
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetOutline replaces the document's own outline for this job.
func (j *Job) SetOutline(entries []doctree.Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outline = entries
}

// Dir is the directory the job's chapter files are written to.
func (j *Job) Dir() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dir
}

// File returns the written chapter whose file name is name.
func (j *Job) File(name string) (export.ChapterResult, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range j.Chapters {
		if c.Name+".txt" == name || c.Name == name {
			return c, true
		}
	}
	return export.ChapterResult{}, false
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string                 `json:"job_id"`
	Filename    string                 `json:"filename"`
	Options     JobOptions             `json:"options"`
	Status      JobStatus              `json:"status"`
	Phase       string                 `json:"phase"`
	Progress    Progress               `json:"progress"`
	Chapters    []export.ChapterResult `json:"chapters"`
	ContentHash string                 `json:"content_hash,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	chapters := append([]export.ChapterResult{}, j.Chapters...)
	return JobSnapshot{
		ID:       j.ID,
		Filename: j.Filename,
		Options:  j.Options,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: Progress{
			TotalPages:      j.Progress.TotalPages,
			TotalChapters:   j.Progress.TotalChapters,
			ChaptersWritten: j.Progress.ChaptersWritten,
			SkippedPages:    j.Progress.SkippedPages,
			Errors:          errs,
		},
		Chapters:    chapters,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
