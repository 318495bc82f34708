package document

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Print page breaks in inline styles
// (page-break-before/after: always, break-before/after: page) split the
// pages; h1-h6 form the outline.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader) (*Paged, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var w pageWriter
	outline := newOutlineBuilder()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			s := collapseSpace(n.Data)
			if w.atLineStart() {
				s = strings.TrimLeft(s, " ")
			}
			w.WriteString(s)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "template", "noscript":
				return
			case "br":
				w.WriteString("\n")
				return
			}
		}

		before, after := pageBreaks(n)
		if before {
			w.breakPage()
		}

		if level := headingLevel(n); level > 0 {
			title := textContent(n)
			if title != "" {
				outline.add(level, title, w.page())
				w.newline()
				w.WriteString(title)
				w.WriteString("\n")
			}
		} else {
			block := isBlock(n)
			if block {
				w.newline()
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if block {
				w.newline()
			}
		}

		if after {
			w.breakPage()
		}
	}

	body := findBody(doc)
	if body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return NewPaged(w.finish(), outline.nodes()), nil
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.Data {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "p", "div", "section", "article", "aside", "header", "footer", "nav",
		"li", "ul", "ol", "dl", "dt", "dd", "table", "tr", "blockquote", "pre",
		"figure", "figcaption", "hr", "main":
		return true
	}
	return false
}

// pageBreaks reads forced page breaks from an element's inline style.
func pageBreaks(n *html.Node) (before, after bool) {
	if n.Type != html.ElementNode {
		return false, false
	}
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		style := strings.ToLower(strings.Join(strings.Fields(a.Val), ""))
		before = strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page")
		after = strings.Contains(style, "page-break-after:always") || strings.Contains(style, "break-after:page")
	}
	return before, after
}

func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	lead := strings.TrimLeft(s, " \t\r\n") != s
	trail := strings.TrimRight(s, " \t\r\n") != s
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
