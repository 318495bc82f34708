package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docsplit/internal/chapter"
	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/document"
)

// Orchestrator queues export jobs and runs them on a fixed worker pool.
// Each job runs on a single worker from start to finish.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	stats *ExportStats
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline; call Start to run workers.
func NewOrchestrator(cfg config.Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		stats: NewExportStats(cfg.JobTTL),
		log:   log,
		cfg:   cfg,
	}
}

// NewJob creates a queued job for an uploaded document.
func NewJob(filename string, data []byte, opts JobOptions) (*Job, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}
	now := time.Now()
	job := &Job{
		ID:          id.String(),
		Filename:    filename,
		Options:     opts,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	job.SetFileData(data)
	return job, nil
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.cfg.OutputRoot, o.documentOptions(), o.stats, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cleanup()
			}
		}
	}()
}

func (o *Orchestrator) cleanup() {
	for _, job := range o.jobs.Cleanup() {
		if dir := job.Dir(); dir != "" {
			if err := os.RemoveAll(dir); err != nil {
				o.log.Warn("remove expired job output", "job_id", job.ID, "dir", dir, "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the rolling export statistics.
func (o *Orchestrator) Stats() *ExportStats {
	return o.stats
}

func (o *Orchestrator) documentOptions() document.Options {
	return document.Options{
		PDFEngine:         o.cfg.PDFEngine,
		FallbackPdftotext: o.cfg.PDFFallbackPdftotext,
	}
}

// Preview resolves chapters with the orchestrator's document settings.
func (o *Orchestrator) Preview(filename string, data []byte, outline []doctree.Entry, ranges chapter.RangePolicy) (*Layout, error) {
	return Preview(filename, data, outline, ranges, o.documentOptions())
}
