package chapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
)

var (
	// ErrNoChaptersFound means the outline has no entry that points at a page.
	ErrNoChaptersFound = errors.New("no page-anchored outline entries")
	// ErrDegenerateRange means a chapter range is empty, inverted or past
	// the end of the document. Only returned under RangesReject.
	ErrDegenerateRange = errors.New("degenerate chapter range")
)

// RangePolicy decides what happens to chapters whose page range is not a
// proper, in-bounds interval.
type RangePolicy string

const (
	// RangesAccept keeps such chapters; they export as empty or partial files.
	RangesAccept RangePolicy = "accept"
	// RangesReject fails the run on the first such chapter.
	RangesReject RangePolicy = "reject"
)

// ParseRangePolicy converts a string to a RangePolicy.
func ParseRangePolicy(s string) (RangePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RangesAccept):
		return RangesAccept, nil
	case string(RangesReject), "strict":
		return RangesReject, nil
	}
	return "", fmt.Errorf("unknown range policy %q (want accept or reject)", s)
}

// Options controls Resolve.
type Options struct {
	Ranges RangePolicy
}

// Chapter is a page interval of the document named after an outline entry.
type Chapter struct {
	Title     string `json:"title"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"` // exclusive
}

// PageCount is the number of pages the chapter covers; inverted ranges cover none.
func (c Chapter) PageCount() int {
	if c.EndPage <= c.StartPage {
		return 0
	}
	return c.EndPage - c.StartPage
}

func (c Chapter) String() string {
	return fmt.Sprintf("%s:[%d,%d)", c.Title, c.StartPage, c.EndPage)
}

// Resolve turns outline entries into consecutive chapters. Entries without
// a page are dropped; the rest keep outline order, even when their pages
// are out of order. Each chapter ends where the next one starts and the
// last one ends at totalPages.
func Resolve(entries []doctree.Entry, totalPages int, opts Options) ([]Chapter, error) {
	var chapters []Chapter
	for _, e := range entries {
		if !e.Anchored() {
			continue
		}
		chapters = append(chapters, Chapter{Title: e.Title, StartPage: e.Page})
	}
	if len(chapters) == 0 {
		return nil, ErrNoChaptersFound
	}

	for i := range chapters {
		if i+1 < len(chapters) {
			chapters[i].EndPage = chapters[i+1].StartPage
		} else {
			chapters[i].EndPage = totalPages
		}
	}

	if opts.Ranges == RangesReject {
		if problems := Validate(chapters, totalPages); len(problems) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrDegenerateRange, problems[0])
		}
	}
	return chapters, nil
}

// Problem describes one chapter whose range is not a proper interval.
type Problem struct {
	Index   int
	Chapter Chapter
	Reason  string
}

func (p Problem) String() string {
	return fmt.Sprintf("chapter %d %q [%d,%d): %s", p.Index+1, p.Chapter.Title, p.Chapter.StartPage, p.Chapter.EndPage, p.Reason)
}

// Validate lists chapters with empty, inverted or out-of-bounds ranges.
func Validate(chapters []Chapter, totalPages int) []Problem {
	var problems []Problem
	for i, c := range chapters {
		var reason string
		switch {
		case c.StartPage >= totalPages:
			reason = fmt.Sprintf("starts at or past the last page (%d pages)", totalPages)
		case c.EndPage > totalPages:
			reason = fmt.Sprintf("ends past the last page (%d pages)", totalPages)
		case c.EndPage == c.StartPage:
			reason = "empty range"
		case c.EndPage < c.StartPage:
			reason = "next outline entry points at an earlier page"
		default:
			continue
		}
		problems = append(problems, Problem{Index: i, Chapter: c, Reason: reason})
	}
	return problems
}
