package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsplit/internal/chapter"
	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/document"
	"github.com/dgallion1/docsplit/internal/export"
	"github.com/dgallion1/docsplit/internal/logger"
)

type flags struct {
	engine    string
	dedupe    bool
	strict    bool
	outline   string
	dryRun    bool
	pdftotext bool
	debug     bool
}

// apply overrides environment settings with the flags the user set.
func (f flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("engine") {
		cfg.PDFEngine = f.engine
	}
	if changed("dedupe") {
		cfg.Dedupe = f.dedupe
	}
	if changed("strict") {
		cfg.RangePolicy = chapter.RangesAccept
		if f.strict {
			cfg.RangePolicy = chapter.RangesReject
		}
	}
	if changed("pdftotext") {
		cfg.PDFFallbackPdftotext = f.pdftotext
	}
}

func splitDocument(cmd *cobra.Command, f flags, path, outDir string, stdout, stderr io.Writer) error {
	cfg := config.Load()
	f.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return &UsageError{Msg: err.Error()}
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: stderr,
		Debug:  f.debug,
	})
	if err != nil {
		return &UsageError{Msg: err.Error()}
	}

	if !f.dryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("%w: create output directory %s: %w", export.ErrIO, outDir, err)
		}
	}

	doc, err := document.Open(path, document.Options{
		PDFEngine:         cfg.PDFEngine,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		return err
	}
	defer doc.Close()

	if f.outline != "" {
		entries, err := readOutlineFile(f.outline)
		if err != nil {
			return err
		}
		doc = document.WithOutline(doc, entries)
	}

	entries, err := doc.OutlineEntries()
	if err != nil {
		return fmt.Errorf("read outline of %s: %w", path, err)
	}
	total, err := doc.PageCount()
	if err != nil {
		return fmt.Errorf("count pages of %s: %w", path, err)
	}
	log.Debug("document opened", "path", path, "pages", total, "outline_entries", len(entries))

	chapters, err := chapter.Resolve(entries, total, chapter.Options{Ranges: cfg.RangePolicy})
	if err != nil {
		return fmt.Errorf("resolve chapters of %s: %w", path, err)
	}

	if f.dryRun {
		printChapters(stdout, chapters, total)
		return nil
	}

	exp := export.NewExporter(export.Options{Dedupe: cfg.Dedupe}, log)
	report, err := exp.Export(doc, chapters, outDir)
	if err != nil {
		return err
	}

	log.Info("export complete",
		slog.String("dir", report.Dir),
		slog.Int("chapters", len(report.Chapters)),
		slog.Int("skipped_pages", report.SkippedPages()),
	)
	return nil
}

func readOutlineFile(path string) ([]doctree.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open outline %s: %w", path, err)
	}
	defer f.Close()
	entries, err := document.ReadOutlineCSV(f)
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", path, err)
	}
	return entries, nil
}

func printChapters(w io.Writer, chapters []chapter.Chapter, total int) {
	fmt.Fprintf(w, "%d chapter(s), %d page(s)\n", len(chapters), total)
	for i, c := range chapters {
		fmt.Fprintf(w, "%3d  [%d,%d)  %-4d %s\n", i+1, c.StartPage, c.EndPage, c.PageCount(), c.Title)
	}
	for _, p := range chapter.Validate(chapters, total) {
		fmt.Fprintf(w, "warning: %s\n", p)
	}
}
