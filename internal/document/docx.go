package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Explicit page breaks (<w:br w:type="page"/>)
// split the pages; HeadingN paragraph styles form the outline. Word's own
// soft pagination is not stored in the file and is not reproduced.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader) (*Paged, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docsplit-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var w pageWriter
	outline := newOutlineBuilder()

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		level := docxHeadingLevel(para)
		titlePage := -1
		var title strings.Builder

		w.newline()
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				switch v := rc.(type) {
				case *docx.Text:
					if titlePage < 0 && strings.TrimSpace(v.Text) != "" {
						titlePage = w.page()
					}
					title.WriteString(v.Text)
					w.WriteString(v.Text)
				case *docx.BarterRabbet:
					if v.Type == "page" {
						w.breakPage()
					} else {
						w.WriteString("\n")
					}
				}
			}
		}
		w.newline()

		if level > 0 && titlePage >= 0 {
			outline.add(level, strings.TrimSpace(title.String()), titlePage)
		}
	}

	return NewPaged(w.finish(), outline.nodes()), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}
