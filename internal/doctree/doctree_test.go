package doctree

import "testing"

func TestFlatten_PreOrder(t *testing.T) {
	tree := []*Node{
		{Title: "Part I", Page: NoPage, Children: []*Node{
			{Title: "Chapter 1", Page: 2},
			{Title: "Chapter 2", Page: 9, Children: []*Node{
				{Title: "2.1", Page: 11},
			}},
		}},
		{Title: "Appendix", Page: 40},
	}

	got := Flatten(tree)
	want := []Entry{
		{Title: "Part I", Page: NoPage, Depth: 0},
		{Title: "Chapter 1", Page: 2, Depth: 1},
		{Title: "Chapter 2", Page: 9, Depth: 1},
		{Title: "2.1", Page: 11, Depth: 2},
		{Title: "Appendix", Page: 40, Depth: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d]: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFlatten_Empty(t *testing.T) {
	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestFlatten_SkipsNilNodes(t *testing.T) {
	got := Flatten([]*Node{nil, {Title: "Only", Page: 0}})
	if len(got) != 1 || got[0].Title != "Only" {
		t.Errorf("expected single entry %q, got %+v", "Only", got)
	}
}

func TestEntry_Anchored(t *testing.T) {
	cases := []struct {
		page int
		want bool
	}{
		{NoPage, false},
		{-5, false},
		{0, true},
		{12, true},
	}
	for _, c := range cases {
		if got := (Entry{Page: c.page}).Anchored(); got != c.want {
			t.Errorf("Anchored(page=%d) = %v, want %v", c.page, got, c.want)
		}
	}
}
