package document

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Pages are
// separated by form feeds; headings form the outline. Page text is the
// Markdown source of the page.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader) (*Paged, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	pages := splitPages(string(src))
	outline := newOutlineBuilder()

	for i, page := range pages {
		pageSrc := []byte(page)
		doc := md.Parser().Parse(text.NewReader(pageSrc))
		for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
			heading, ok := n.(*ast.Heading)
			if !ok {
				continue
			}
			title := strings.TrimSpace(string(heading.Text(pageSrc)))
			if title == "" {
				continue
			}
			outline.add(heading.Level, title, i)
		}
	}

	return NewPaged(pages, outline.nodes()), nil
}
