package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docsplit/internal/doctree"
)

func assertEntries(t *testing.T, got, want []doctree.Entry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d]: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func pageTexts(t *testing.T, d Document) []string {
	t.Helper()
	n, err := d.PageCount()
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	var pages []string
	for i := 0; i < n; i++ {
		text, err := d.PageText(i)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		pages = append(pages, text)
	}
	return pages
}

func TestTextParser_FormFeedPages(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("one\fTwo\nlines\fthree\f"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pages := pageTexts(t, doc)
	want := []string{"one", "Two\nlines", "three"}
	if len(pages) != len(want) {
		t.Fatalf("expected %d pages, got %d: %q", len(want), len(pages), pages)
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d: expected %q, got %q", i, want[i], pages[i])
		}
	}
	entries, _ := doc.OutlineEntries()
	if len(entries) != 0 {
		t.Errorf("expected no outline for plain text, got %+v", entries)
	}
}

func TestTextParser_EmptyInputIsOnePage(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := doc.PageCount(); n != 1 {
		t.Errorf("expected 1 page, got %d", n)
	}
}

func TestMarkdownParser_HeadingsAcrossPages(t *testing.T) {
	input := "# Intro\n\nWelcome.\n\f# Body\n\nMain text.\n\n## Detail\n\nMore.\n\f\fSetext Outro\n============\n\nBye.\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := doc.OutlineEntries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEntries(t, entries, []doctree.Entry{
		{Title: "Intro", Page: 0, Depth: 0},
		{Title: "Body", Page: 1, Depth: 0},
		{Title: "Detail", Page: 1, Depth: 1},
		{Title: "Setext Outro", Page: 3, Depth: 0},
	})

	pages := pageTexts(t, doc)
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(pages))
	}
	if pages[0] != "# Intro\n\nWelcome.\n" {
		t.Errorf("unexpected first page %q", pages[0])
	}
	if pages[2] != "" {
		t.Errorf("expected blank third page, got %q", pages[2])
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader("Just some text.\n\nAnother paragraph.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := doc.OutlineEntries()
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %+v", entries)
	}
}

func TestHTMLParser_PageBreaksAndHeadings(t *testing.T) {
	input := `<html><head><title>Book</title><style>h1 { color: red }</style></head><body>
<h1>Intro</h1>
<p>Welcome.</p>
<h1 style="page-break-before: always">Body</h1>
<p>Main   text.</p>
<h2>Detail</h2>
<p>More.</p>
<div style="break-before:page"><h1>Outro</h1><p>Bye.</p></div>
<script>ignored()</script>
</body></html>`

	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, _ := doc.OutlineEntries()
	assertEntries(t, entries, []doctree.Entry{
		{Title: "Intro", Page: 0, Depth: 0},
		{Title: "Body", Page: 1, Depth: 0},
		{Title: "Detail", Page: 1, Depth: 1},
		{Title: "Outro", Page: 2, Depth: 0},
	})

	pages := pageTexts(t, doc)
	want := []string{
		"Intro\nWelcome.\n",
		"Body\nMain text.\nDetail\nMore.\n",
		"Outro\nBye.\n",
	}
	if len(pages) != len(want) {
		t.Fatalf("expected %d pages, got %d: %q", len(want), len(pages), pages)
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d: expected %q, got %q", i, want[i], pages[i])
		}
	}
}

func TestHTMLParser_LeadingBreakDoesNotAddBlankPage(t *testing.T) {
	input := `<body><h1 style="page-break-before:always">Only</h1><p>Text</p></body>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := doc.PageCount(); n != 1 {
		t.Errorf("expected 1 page, got %d", n)
	}
	entries, _ := doc.OutlineEntries()
	assertEntries(t, entries, []doctree.Entry{{Title: "Only", Page: 0}})
}

func TestOutlineBuilder_Nesting(t *testing.T) {
	b := newOutlineBuilder()
	b.add(1, "A", 0)
	b.add(2, "A.1", 1)
	b.add(3, "A.1.a", 1)
	b.add(2, "A.2", 2)
	b.add(1, "B", 3)
	b.add(3, "B deep", 4)

	nodes := b.nodes()
	if len(nodes) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(nodes))
	}
	if len(nodes[0].Children) != 2 || len(nodes[0].Children[0].Children) != 1 {
		t.Errorf("unexpected nesting under A: %+v", nodes[0])
	}
	if len(nodes[1].Children) != 1 || nodes[1].Children[0].Title != "B deep" {
		t.Errorf("expected skipped level to nest under B, got %+v", nodes[1])
	}
}

func TestPaged_PageTextOutOfRange(t *testing.T) {
	doc := NewPaged([]string{"a", "b"}, nil)
	for _, idx := range []int{-1, 2} {
		if _, err := doc.PageText(idx); !errors.Is(err, ErrPageUnavailable) {
			t.Errorf("PageText(%d): expected ErrPageUnavailable, got %v", idx, err)
		}
	}
}

func TestReadOutlineCSV(t *testing.T) {
	input := "title,page,depth\nIntro,1\n\"Part I, the start\",,0\nChapter 1,3,1\n"
	entries, err := ReadOutlineCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEntries(t, entries, []doctree.Entry{
		{Title: "Intro", Page: 0},
		{Title: "Part I, the start", Page: doctree.NoPage},
		{Title: "Chapter 1", Page: 2, Depth: 1},
	})
}

func TestReadOutlineCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"zero page":     "A,0\n",
		"text page":     "A,seven\n",
		"missing page":  "A\n",
		"negative deep": "A,1,-1\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadOutlineCSV(strings.NewReader(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWithOutline_ReplacesOutline(t *testing.T) {
	base := NewPaged([]string{"a", "b", "c"}, []*doctree.Node{{Title: "Own", Page: 0}})
	doc := WithOutline(base, []doctree.Entry{{Title: "Override", Page: 1}})

	entries, _ := doc.OutlineEntries()
	assertEntries(t, entries, []doctree.Entry{{Title: "Override", Page: 1}})
	if text, _ := doc.PageText(2); text != "c" {
		t.Errorf("expected page text to come from the wrapped document, got %q", text)
	}
}

func TestOpen_ByExtension(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "notes.MD")
	if err := os.WriteFile(md, []byte("# One\n\fbody"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(md, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()
	if n, _ := doc.PageCount(); n != 2 {
		t.Errorf("expected 2 pages, got %d", n)
	}

	odd := filepath.Join(dir, "table.csv")
	if err := os.WriteFile(odd, []byte("a,b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(odd, Options{}); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen for unsupported extension, got %v", err)
	}
}

func TestParseEngine(t *testing.T) {
	cases := []struct {
		input string
		want  string
		err   bool
	}{
		{"", EngineNative, false},
		{"Native", EngineNative, false},
		{"fitz", EngineFitz, false},
		{"mupdf", EngineFitz, false},
		{"poppler", "", true},
	}
	for _, c := range cases {
		got, err := ParseEngine(c.input)
		if (err != nil) != c.err || got != c.want {
			t.Errorf("ParseEngine(%q) = %q, %v", c.input, got, err)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	cases := map[string]bool{
		"book.pdf":   true,
		"BOOK.PDF":   true,
		"notes.md":   true,
		"page.xhtml": true,
		"report.doc": false,
		"noext":      false,
	}
	for name, want := range cases {
		if got := IsSupportedExtension(name); got != want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", name, got, want)
		}
	}
}
