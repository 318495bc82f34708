package doctree

// NoPage marks an outline entry that does not point at a page.
const NoPage = -1

// Node is one bookmark in a document outline, as the document nests it.
type Node struct {
	Title    string  // Bookmark title as shown by the document
	Page     int     // Zero-based target page, NoPage if unresolvable
	Children []*Node // Nested bookmarks
}

// Entry is a bookmark in document reading order with its nesting dropped.
type Entry struct {
	Title string
	Page  int // Zero-based target page, NoPage if unresolvable
	Depth int // Nesting depth in the source outline (0 = top level); informational only
}

// Anchored reports whether the entry points at a page.
func (e Entry) Anchored() bool {
	return e.Page >= 0
}

// Flatten walks the outline in pre-order and returns its entries.
// Hierarchy survives only as Entry.Depth; nothing downstream uses it
// for output layout.
func Flatten(nodes []*Node) []Entry {
	var entries []Entry
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			entries = append(entries, Entry{Title: n.Title, Page: n.Page, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return entries
}
