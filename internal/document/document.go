package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
)

var (
	// ErrOpen means the document container could not be opened or parsed.
	ErrOpen = errors.New("cannot open document")
	// ErrOutlineUnavailable means the outline exists but cannot be read.
	ErrOutlineUnavailable = errors.New("outline unavailable")
	// ErrPageCountUnavailable means the page count cannot be determined.
	ErrPageCountUnavailable = errors.New("page count unavailable")
	// ErrPageUnavailable means a single page cannot be rendered to text.
	ErrPageUnavailable = errors.New("page unavailable")
)

// Document is an opened, paginated document. It is owned by one run and
// is not safe for concurrent use.
type Document interface {
	// OutlineEntries returns the bookmarks in reading order, flattened.
	OutlineEntries() ([]doctree.Entry, error)
	PageCount() (int, error)
	// PageText renders zero-based page index as plain text.
	PageText(index int) (string, error)
	Close() error
}

// PDF engines.
const (
	EngineNative = "native" // pure Go reader
	EngineFitz   = "fitz"   // MuPDF through cgo
)

// ParseEngine normalizes a PDF engine name.
func ParseEngine(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", EngineNative:
		return EngineNative, nil
	case EngineFitz, "mupdf":
		return EngineFitz, nil
	}
	return "", fmt.Errorf("unknown pdf engine %q (want native or fitz)", s)
}

// Options controls how documents are opened.
type Options struct {
	PDFEngine string
	// FallbackPdftotext renders a page with the pdftotext binary when the
	// native engine cannot.
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this tool can split.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".xhtml":    true,
	".docx":     true,
	".txt":      true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Open opens the document at path, choosing a backend by extension.
func Open(path string, opts Options) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		doc Document
		err error
	)
	switch ext {
	case ".pdf":
		if opts.PDFEngine == EngineFitz {
			doc, err = openFitz(path)
		} else {
			doc, err = openPDF(path, opts.FallbackPdftotext)
		}
	default:
		var p Parser
		p, err = ForFile(path)
		if err == nil {
			doc, err = openPaged(path, p)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	return doc, nil
}

// guard runs fn and turns a panic inside a document library into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()
	return fn()
}
