package document

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
)

// ReadOutlineCSV reads an outline from CSV rows of title,page[,depth].
// Pages are 1-based as printed in a viewer; an empty page marks an entry
// with no target. A first row whose page column reads "page" is a header.
func ReadOutlineCSV(r io.Reader) ([]doctree.Entry, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse outline csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 1 && strings.EqualFold(strings.TrimSpace(records[0][1]), "page") {
		records = records[1:]
	}

	entries := make([]doctree.Entry, 0, len(records))
	for i, row := range records {
		line := i + 1
		if len(row) < 2 {
			return nil, fmt.Errorf("outline csv row %d: want title,page[,depth], got %d fields", line, len(row))
		}
		e := doctree.Entry{Title: strings.TrimSpace(row[0]), Page: doctree.NoPage}

		if p := strings.TrimSpace(row[1]); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("outline csv row %d: invalid page %q (pages start at 1)", line, p)
			}
			e.Page = n - 1
		}
		if len(row) > 2 {
			if d := strings.TrimSpace(row[2]); d != "" {
				n, err := strconv.Atoi(d)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("outline csv row %d: invalid depth %q", line, d)
				}
				e.Depth = n
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WithOutline returns doc with its outline replaced by entries.
func WithOutline(doc Document, entries []doctree.Entry) Document {
	return &outlineOverride{Document: doc, entries: entries}
}

type outlineOverride struct {
	Document
	entries []doctree.Entry
}

func (o *outlineOverride) OutlineEntries() ([]doctree.Entry, error) {
	return o.entries, nil
}
