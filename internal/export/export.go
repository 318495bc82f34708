package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsplit/internal/chapter"
)

// ErrIO wraps any filesystem failure that aborts an export.
var ErrIO = errors.New("i/o error")

// untitledName is the file stem for a chapter whose title sanitizes to
// nothing. Like any other name it is only made unique under Dedupe.
const untitledName = "untitled"

// PageSource renders the text of a single zero-based page.
type PageSource interface {
	PageText(index int) (string, error)
}

// Options controls an Exporter.
type Options struct {
	// Dedupe appends -2, -3, ... to file names already written in this run.
	// Off by default: a later chapter overwrites an earlier one with the
	// same sanitized name.
	Dedupe bool
	// FileMode for chapter files; 0644 when zero.
	FileMode os.FileMode
}

// ChapterResult records what was written for one chapter.
type ChapterResult struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	StartPage    int    `json:"start_page"`
	EndPage      int    `json:"end_page"`
	Bytes        int    `json:"bytes"`
	SkippedPages []int  `json:"skipped_pages,omitempty"`
}

// Report is the outcome of a completed export.
type Report struct {
	Dir      string          `json:"dir"`
	Chapters []ChapterResult `json:"chapters"`
}

// SkippedPages counts pages left out across all chapters.
func (r *Report) SkippedPages() int {
	n := 0
	for _, c := range r.Chapters {
		n += len(c.SkippedPages)
	}
	return n
}

// Exporter writes one text file per chapter.
type Exporter struct {
	opts Options
	log  *slog.Logger
}

func NewExporter(opts Options, log *slog.Logger) *Exporter {
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Exporter{opts: opts, log: log}
}

// Export writes every chapter's text to dir/<name>.txt in chapter order.
// dir is created if needed. The first I/O failure stops the run; files
// written before it are left in place.
func (e *Exporter) Export(src PageSource, chapters []chapter.Chapter, dir string) (*Report, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory %s: %w", ErrIO, dir, err)
	}

	report := &Report{Dir: dir}
	used := make(map[string]int)

	for _, ch := range chapters {
		text, skipped := ChapterText(src, ch)

		name := SanitizeName(ch.Title)
		if name == "" {
			name = untitledName
		}
		used[name]++
		if e.opts.Dedupe && used[name] > 1 {
			name = uniqueName(name, used)
		}

		path := filepath.Join(dir, name+".txt")
		if err := os.WriteFile(path, []byte(text), e.opts.FileMode); err != nil {
			return report, fmt.Errorf("%w: write chapter file %s: %w", ErrIO, path, err)
		}

		if len(skipped) > 0 {
			e.log.Warn("pages skipped", "chapter", ch.Title, "pages", skipped)
		}
		e.log.Debug("chapter written", "chapter", ch.Title, "path", path, "start_page", ch.StartPage, "end_page", ch.EndPage, "bytes", len(text))

		report.Chapters = append(report.Chapters, ChapterResult{
			Title:        ch.Title,
			Name:         name,
			Path:         path,
			StartPage:    ch.StartPage,
			EndPage:      ch.EndPage,
			Bytes:        len(text),
			SkippedPages: skipped,
		})
	}
	return report, nil
}

// uniqueName returns name-N for the first N not yet used in this run.
func uniqueName(name string, used map[string]int) string {
	for n := used[name]; ; n++ {
		candidate := fmt.Sprintf("%s-%d", name, n)
		if used[candidate] == 0 {
			used[candidate]++
			return candidate
		}
	}
}

// ChapterText concatenates the text of every page in [StartPage, EndPage).
// Pages the source cannot render are skipped and returned instead of
// failing the chapter.
func ChapterText(src PageSource, ch chapter.Chapter) (string, []int) {
	var buf strings.Builder
	var skipped []int
	for p := ch.StartPage; p < ch.EndPage; p++ {
		text, err := src.PageText(p)
		if err != nil {
			skipped = append(skipped, p)
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), skipped
}
