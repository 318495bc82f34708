package document

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strconv"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// Guards against malformed outlines whose /Next or /First links loop.
const (
	maxOutlineItems  = 1 << 16
	maxOutlineDepth  = 64
	maxDestHops      = 8
	maxNameTreeDepth = 32
)

// pdfDocument reads PDFs with the pure Go reader and can fall back to
// pdftotext for pages the reader cannot render.
type pdfDocument struct {
	path     string
	file     *os.File
	reader   *pdflib.Reader
	fallback bool

	pages []pdflib.Value // page objects in page order, built on first outline read
}

func openPDF(path string, fallback bool) (*pdfDocument, error) {
	var (
		f *os.File
		r *pdflib.Reader
	)
	err := guard(func() error {
		var err error
		f, r, err = pdflib.Open(path)
		return err
	})
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, err
	}
	return &pdfDocument{path: path, file: f, reader: r, fallback: fallback}, nil
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}

func (d *pdfDocument) PageCount() (int, error) {
	var n int
	err := guard(func() error {
		n = d.reader.NumPage()
		if n < 0 {
			return fmt.Errorf("negative page count %d", n)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPageCountUnavailable, err)
	}
	return n, nil
}

func (d *pdfDocument) PageText(index int) (string, error) {
	n, err := d.PageCount()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= n {
		return "", fmt.Errorf("%w: page %d of %d", ErrPageUnavailable, index, n)
	}

	var text string
	err = guard(func() error {
		page := d.reader.Page(index + 1)
		if page.V.IsNull() {
			return errors.New("page object missing")
		}
		var err error
		text, err = page.GetPlainText(nil)
		return err
	})
	if err != nil && d.fallback {
		if t, ferr := pdftotextPage(d.path, index+1); ferr == nil {
			return t, nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrPageUnavailable, index, err)
	}
	return text, nil
}

func (d *pdfDocument) OutlineEntries() ([]doctree.Entry, error) {
	var nodes []*doctree.Node
	err := guard(func() error {
		root := d.reader.Trailer().Key("Root")
		if root.Kind() != pdflib.Dict {
			return errors.New("document catalog missing")
		}
		if d.pages == nil {
			d.pages = d.pageObjects()
		}
		w := &outlineWalker{root: root, pages: d.pages}
		nodes = w.branch(root.Key("Outlines").Key("First"), 0)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutlineUnavailable, err)
	}
	return doctree.Flatten(nodes), nil
}

func (d *pdfDocument) pageObjects() []pdflib.Value {
	n := d.reader.NumPage()
	pages := make([]pdflib.Value, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, d.reader.Page(i).V)
	}
	return pages
}

// outlineWalker resolves outline items to zero-based page indexes.
type outlineWalker struct {
	root  pdflib.Value
	pages []pdflib.Value
	seen  int
}

func (w *outlineWalker) branch(first pdflib.Value, depth int) []*doctree.Node {
	if depth > maxOutlineDepth {
		return nil
	}
	var nodes []*doctree.Node
	for item := first; item.Kind() == pdflib.Dict; item = item.Key("Next") {
		if w.seen >= maxOutlineItems {
			break
		}
		w.seen++
		node := &doctree.Node{
			Title: item.Key("Title").Text(),
			Page:  w.itemPage(item),
		}
		node.Children = w.branch(item.Key("First"), depth+1)
		nodes = append(nodes, node)
	}
	return nodes
}

func (w *outlineWalker) itemPage(item pdflib.Value) int {
	if dest := item.Key("Dest"); !dest.IsNull() {
		return w.destPage(dest, 0)
	}
	action := item.Key("A")
	if action.Kind() == pdflib.Dict && action.Key("S").Name() == "GoTo" {
		return w.destPage(action.Key("D"), 0)
	}
	return doctree.NoPage
}

// destPage resolves an explicit destination array, a destination
// dictionary, or a named destination.
func (w *outlineWalker) destPage(dest pdflib.Value, hops int) int {
	if hops > maxDestHops {
		return doctree.NoPage
	}
	switch dest.Kind() {
	case pdflib.Array:
		if dest.Len() == 0 {
			return doctree.NoPage
		}
		target := dest.Index(0)
		if target.Kind() == pdflib.Integer {
			if n := int(target.Int64()); n >= 0 {
				return n
			}
			return doctree.NoPage
		}
		return w.indexOf(target)
	case pdflib.Dict:
		return w.destPage(dest.Key("D"), hops+1)
	case pdflib.Name:
		return w.named(dest.Name(), hops+1)
	case pdflib.String:
		return w.named(dest.RawString(), hops+1)
	}
	return doctree.NoPage
}

func (w *outlineWalker) named(name string, hops int) int {
	if v := w.root.Key("Dests").Key(name); !v.IsNull() {
		return w.destPage(v, hops)
	}
	if v := lookupNameTree(w.root.Key("Names").Key("Dests"), name, 0); !v.IsNull() {
		return w.destPage(v, hops)
	}
	return doctree.NoPage
}

func (w *outlineWalker) indexOf(target pdflib.Value) int {
	if target.Kind() != pdflib.Dict {
		return doctree.NoPage
	}
	for i, page := range w.pages {
		if reflect.DeepEqual(page, target) {
			return i
		}
	}
	return doctree.NoPage
}

func lookupNameTree(node pdflib.Value, key string, depth int) pdflib.Value {
	if node.Kind() != pdflib.Dict || depth > maxNameTreeDepth {
		return pdflib.Value{}
	}
	names := node.Key("Names")
	for i := 0; i+1 < names.Len(); i += 2 {
		if names.Index(i).RawString() == key {
			return names.Index(i + 1)
		}
	}
	kids := node.Key("Kids")
	for i := 0; i < kids.Len(); i++ {
		kid := kids.Index(i)
		if limits := kid.Key("Limits"); limits.Len() == 2 {
			if key < limits.Index(0).RawString() || key > limits.Index(1).RawString() {
				continue
			}
		}
		if v := lookupNameTree(kid, key, depth+1); !v.IsNull() {
			return v
		}
	}
	return pdflib.Value{}
}

// pdftotextPage renders one 1-based page with the pdftotext binary.
func pdftotextPage(path string, page int) (string, error) {
	n := strconv.Itoa(page)
	cmd := exec.Command("pdftotext", "-layout", "-f", n, "-l", n, path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return strings.TrimSuffix(string(out), "\f"), nil
}
