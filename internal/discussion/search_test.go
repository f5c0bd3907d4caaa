package discussion

import (
	"reflect"
	"testing"

	"threadkit/internal/models"
)

func TestFilterMatchesBodyAndAuthor(t *testing.T) {
	set := scenarioSet()
	set[1].Body = "Loved the DRONE footage"
	set[2].Body = "meh"

	if got := keys(Filter("drone", set)); !reflect.DeepEqual(got, []string{"bob/c1"}) {
		t.Errorf("body match = %v", got)
	}
	if got := keys(Filter("CAROL", set)); !reflect.DeepEqual(got, []string{"carol/c2"}) {
		t.Errorf("author match = %v", got)
	}
}

func TestFilterDoesNotMutate(t *testing.T) {
	set := scenarioSet()
	before := append([]models.Comment(nil), set...)
	Filter("bob", set)
	if !reflect.DeepEqual(set, before) {
		t.Error("filter mutated its input")
	}
}

func TestEmptyQueryRoundTrip(t *testing.T) {
	set := scenarioSet()
	for _, c := range set {
		want := keys(Children(c, set))
		got := keys(Children(c, Filter("", set)))
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: filtered children %v, want %v", c.Key(), got, want)
		}
	}
	want := Walk(set[0], set, Options{})
	got := Walk(set[0], Filter("  ", set), Options{})
	if !reflect.DeepEqual(got, want) {
		t.Error("clearing the query did not restore the tree")
	}
}

func TestFilteredDescendantRendersUnderRoot(t *testing.T) {
	set := scenarioSet()
	set[2].Body = "needle"
	view := Walk(set[0], Filter("needle", set), Options{Query: "needle"})
	if len(view.Nodes) != 1 || view.Nodes[0].Key != "carol/c2" {
		t.Fatalf("expected carol/c2 at top level, got %+v", view.Nodes)
	}
	if view.Nodes[0].BodyHTML != "<mark>needle</mark>" {
		t.Errorf("body html = %s", view.Nodes[0].BodyHTML)
	}
}

func TestHighlight(t *testing.T) {
	cases := []struct {
		source, query, want string
	}{
		{"Hello hello", "HELLO", "<mark>Hello</mark> <mark>hello</mark>"},
		{"**a+b** <i>", "a+b", "**<mark>a+b</mark>** &lt;i&gt;"},
		{"plain", "", "plain"},
		{"x < y", "zzz", "x &lt; y"},
	}
	for _, tc := range cases {
		if got := string(Highlight(tc.source, tc.query)); got != tc.want {
			t.Errorf("Highlight(%q, %q) = %q, want %q", tc.source, tc.query, got, tc.want)
		}
	}
}
