package document

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/gen2brain/go-fitz"
)

// fitzDocument reads PDFs through MuPDF.
type fitzDocument struct {
	doc *fitz.Document
}

func openFitz(path string) (*fitzDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}

func (d *fitzDocument) OutlineEntries() ([]doctree.Entry, error) {
	toc, err := d.doc.ToC()
	if errors.Is(err, fitz.ErrLoadOutline) {
		// MuPDF reports a document without bookmarks this way.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutlineUnavailable, err)
	}

	entries := make([]doctree.Entry, 0, len(toc))
	for _, item := range toc {
		page := item.Page
		if page < 0 {
			page = doctree.NoPage
		}
		depth := item.Level - 1
		if depth < 0 {
			depth = 0
		}
		entries = append(entries, doctree.Entry{Title: item.Title, Page: page, Depth: depth})
	}
	return entries, nil
}

func (d *fitzDocument) PageCount() (int, error) {
	n := d.doc.NumPage()
	if n < 0 {
		return 0, fmt.Errorf("%w: mupdf reported %d pages", ErrPageCountUnavailable, n)
	}
	return n, nil
}

func (d *fitzDocument) PageText(index int) (string, error) {
	n := d.doc.NumPage()
	if index < 0 || index >= n {
		return "", fmt.Errorf("%w: page %d of %d", ErrPageUnavailable, index, n)
	}
	text, err := d.doc.Text(index)
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrPageUnavailable, index, err)
	}
	return text, nil
}
