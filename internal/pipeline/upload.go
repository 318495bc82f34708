package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsplit/internal/chapter"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/document"
)

// openUpload spools uploaded bytes to a temp file carrying the upload's
// extension, since backends pick a format by extension and the PDF
// readers need a seekable file. The returned cleanup closes the document
// and removes the file.
func openUpload(filename string, data []byte, opts document.Options) (document.Document, func(), error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !document.IsSupportedExtension(filename) {
		return nil, nil, fmt.Errorf("%w %s: unsupported file extension %q", document.ErrOpen, filename, ext)
	}

	tmp, err := os.CreateTemp("", "docsplit-*"+ext)
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, nil, fmt.Errorf("close temp file: %w", err)
	}

	doc, err := document.Open(tmp.Name(), opts)
	if err != nil {
		os.Remove(tmp.Name())
		return nil, nil, err
	}
	return doc, func() {
		doc.Close()
		os.Remove(tmp.Name())
	}, nil
}

// Layout is a document's resolved chapters before anything is written.
type Layout struct {
	Pages    int               `json:"pages"`
	Chapters []chapter.Chapter `json:"chapters"`
	Problems []string          `json:"problems,omitempty"`
}

// resolve reads the outline (or uses the override) and page count of doc
// and resolves its chapters.
func resolve(doc document.Document, outline []doctree.Entry, ranges chapter.RangePolicy) (*Layout, error) {
	if outline != nil {
		doc = document.WithOutline(doc, outline)
	}
	entries, err := doc.OutlineEntries()
	if err != nil {
		return nil, err
	}
	total, err := doc.PageCount()
	if err != nil {
		return nil, err
	}
	chapters, err := chapter.Resolve(entries, total, chapter.Options{Ranges: ranges})
	if err != nil {
		return nil, err
	}

	layout := &Layout{Pages: total, Chapters: chapters}
	for _, p := range chapter.Validate(chapters, total) {
		layout.Problems = append(layout.Problems, p.String())
	}
	return layout, nil
}

// Preview resolves the chapters of an uploaded document without writing
// any files.
func Preview(filename string, data []byte, outline []doctree.Entry, ranges chapter.RangePolicy, opts document.Options) (*Layout, error) {
	doc, cleanup, err := openUpload(filename, data, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return resolve(doc, outline, ranges)
}
