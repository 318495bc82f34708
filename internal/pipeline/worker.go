package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dgallion1/docsplit/internal/document"
	"github.com/dgallion1/docsplit/internal/export"
)

// Worker runs export jobs one at a time.
type Worker struct {
	outputRoot string
	docOpts    document.Options
	stats      *ExportStats
	log        *slog.Logger
}

func NewWorker(outputRoot string, docOpts document.Options, stats *ExportStats, log *slog.Logger) *Worker {
	return &Worker{
		outputRoot: outputRoot,
		docOpts:    docOpts,
		stats:      stats,
		log:        log,
	}
}

// Process opens the job's document, resolves its chapters and writes
// them under <outputRoot>/<job id>.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()
	sample := ExportSample{}
	completed := false
	defer func() {
		sample.Duration = time.Since(start)
		if w.stats != nil {
			w.stats.Record(sample)
		}
		// The upload is no longer needed once the job has finished.
		job.SetFileData(nil)
		if completed {
			job.SetStatus(StatusCompleted, "done")
		}
	}()

	fail := func(phase string, err error) {
		log.Error("export failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		sample.Failed = true
	}

	if err := ctx.Err(); err != nil {
		fail("queued", err)
		return
	}

	// Phase 1: Open
	job.SetStatus(StatusOpening, "opening")
	doc, cleanup, err := openUpload(job.Filename, job.FileData(), w.docOpts)
	if err != nil {
		fail("opening", err)
		return
	}
	defer cleanup()

	// Phase 2: Resolve
	job.SetStatus(StatusResolving, "resolving")
	job.mu.Lock()
	outline, ranges := job.outline, job.Options.Ranges
	job.mu.Unlock()

	layout, err := resolve(doc, outline, ranges)
	if err != nil {
		fail("resolving", err)
		return
	}
	job.SetLayout(layout.Pages, len(layout.Chapters))
	sample.Pages = layout.Pages
	sample.Chapters = len(layout.Chapters)
	for _, p := range layout.Problems {
		log.Warn("chapter range", "problem", p)
	}

	// Phase 3: Export
	job.SetStatus(StatusExporting, "exporting")
	dir := filepath.Join(w.outputRoot, job.ID)
	job.mu.Lock()
	job.dir = dir
	job.mu.Unlock()

	exp := export.NewExporter(export.Options{Dedupe: job.Options.Dedupe}, log)
	report, err := exp.Export(doc, layout.Chapters, dir)
	job.SetReport(report)
	if report != nil {
		sample.SkippedPages = report.SkippedPages()
	}
	if err != nil {
		fail("exporting", err)
		return
	}

	log.Info("export complete", "chapters", len(report.Chapters), "skipped_pages", report.SkippedPages(), "dir", dir)
	completed = true
}
