package document

import (
	"io"
)

// TextParser handles plain text files whose pages are separated by form
// feeds, such as pdftotext output. Plain text has no outline of its own;
// pair it with an outline override.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader) (*Paged, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewPaged(splitPages(string(src)), nil), nil
}
