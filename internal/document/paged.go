package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
)

// Parser converts a non-PDF document into pages and an outline.
type Parser interface {
	Parse(r io.Reader) (*Paged, error)
}

// ForFile returns the parser for a non-PDF filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm", ".xhtml":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func openPaged(path string, p Parser) (*Paged, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f)
}

// Paged is an in-memory document: page texts plus an outline whose pages
// index into them.
type Paged struct {
	pages   []string
	outline []*doctree.Node
}

// NewPaged builds a Paged document.
func NewPaged(pages []string, outline []*doctree.Node) *Paged {
	return &Paged{pages: pages, outline: outline}
}

func (d *Paged) OutlineEntries() ([]doctree.Entry, error) {
	return doctree.Flatten(d.outline), nil
}

func (d *Paged) PageCount() (int, error) {
	return len(d.pages), nil
}

func (d *Paged) PageText(index int) (string, error) {
	if index < 0 || index >= len(d.pages) {
		return "", fmt.Errorf("%w: page %d of %d", ErrPageUnavailable, index, len(d.pages))
	}
	return d.pages[index], nil
}

func (d *Paged) Close() error { return nil }

// splitPages splits text on form feeds. A trailing form feed, as
// pdftotext writes, does not start an extra page.
func splitPages(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\f"), "\f")
}

// outlineBuilder nests headings by level, the way the outline would show them.
type outlineBuilder struct {
	root  *doctree.Node
	stack []outlineLevel
}

type outlineLevel struct {
	node  *doctree.Node
	level int
}

func newOutlineBuilder() *outlineBuilder {
	root := &doctree.Node{Page: doctree.NoPage}
	return &outlineBuilder{root: root, stack: []outlineLevel{{node: root, level: 0}}}
}

func (b *outlineBuilder) add(level int, title string, page int) {
	node := &doctree.Node{Title: title, Page: page}
	// Pop until the top of the stack is a shallower heading.
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, outlineLevel{node: node, level: level})
}

func (b *outlineBuilder) nodes() []*doctree.Node {
	return b.root.Children
}

// pageWriter accumulates text into pages for formats that mark page
// breaks inline. A break on a page holding only whitespace is ignored,
// so leading or repeated breaks do not produce blank pages.
type pageWriter struct {
	pages []string
	cur   strings.Builder
}

func (w *pageWriter) page() int { return len(w.pages) }

func (w *pageWriter) WriteString(s string) {
	w.cur.WriteString(s)
}

func (w *pageWriter) atLineStart() bool {
	s := w.cur.String()
	return s == "" || strings.HasSuffix(s, "\n")
}

// newline ends the current line, dropping trailing spaces, unless the
// page is empty or already at a line start.
func (w *pageWriter) newline() {
	if w.atLineStart() {
		return
	}
	s := strings.TrimRight(w.cur.String(), " ")
	w.cur.Reset()
	w.cur.WriteString(s)
	w.cur.WriteByte('\n')
}

func (w *pageWriter) breakPage() {
	if strings.TrimSpace(w.cur.String()) == "" {
		return
	}
	w.pages = append(w.pages, w.cur.String())
	w.cur.Reset()
}

func (w *pageWriter) finish() []string {
	if w.cur.Len() > 0 || len(w.pages) == 0 {
		w.pages = append(w.pages, w.cur.String())
		w.cur.Reset()
	}
	return w.pages
}
