package discussion

import (
	"reflect"
	"testing"

	"threadkit/internal/models"
)

func comment(author, permlink, parentAuthor, parentPermlink string, depth int) models.Comment {
	return models.Comment{
		Author:         author,
		Permlink:       permlink,
		ParentAuthor:   parentAuthor,
		ParentPermlink: parentPermlink,
		Depth:          depth,
		HasDepth:       true,
	}
}

func keys(cs []models.Comment) []string {
	out := []string{}
	for _, c := range cs {
		out = append(out, c.Key().String())
	}
	return out
}

func scenarioSet() []models.Comment {
	return []models.Comment{
		comment("alice", "post1", "", "", 0),
		comment("bob", "c1", "alice", "post1", 1),
		comment("carol", "c2", "bob", "c1", 2),
	}
}

func TestChildrenScenario(t *testing.T) {
	set := scenarioSet()
	if got := keys(Children(set[0], set)); !reflect.DeepEqual(got, []string{"bob/c1"}) {
		t.Errorf("root children = %v", got)
	}
	if got := keys(Children(set[1], set)); !reflect.DeepEqual(got, []string{"carol/c2"}) {
		t.Errorf("bob/c1 children = %v", got)
	}
	if got := keys(Children(set[2], set)); len(got) != 0 {
		t.Errorf("carol/c2 children = %v", got)
	}
}

func TestSelectTier(t *testing.T) {
	cases := []struct {
		primaryEmpty, hasReplyKeys bool
		want                       Tier
	}{
		{false, false, TierPrimary},
		{false, true, TierPrimary},
		{true, true, TierFallback},
		{true, false, TierLeaf},
	}
	for _, tc := range cases {
		if got := SelectTier(tc.primaryEmpty, tc.hasReplyKeys); got != tc.want {
			t.Errorf("SelectTier(%v, %v) = %v, want %v", tc.primaryEmpty, tc.hasReplyKeys, got, tc.want)
		}
	}
}

func TestPrimaryMatchWinsOverStaleReplyKeys(t *testing.T) {
	root := comment("alice", "post1", "", "", 0)
	root.ReplyKeys = []string{"dave/elsewhere"}
	set := []models.Comment{
		root,
		comment("bob", "c1", "alice", "post1", 1),
		comment("dave", "elsewhere", "zed", "other", 1),
	}
	children, tier := ChildrenWithTier(root, set)
	if tier != TierPrimary {
		t.Errorf("tier = %v, want primary", tier)
	}
	if got := keys(children); !reflect.DeepEqual(got, []string{"bob/c1"}) {
		t.Errorf("children = %v", got)
	}
}

func TestFallbackOnlyWhenPrimaryEmpty(t *testing.T) {
	target := comment("zoe", "p", "", "", 0)
	target.ReplyKeys = []string{"alice/p1", "bob/p2"}
	set := []models.Comment{
		target,
		comment("alice", "p1", "someone", "else", 7),
		comment("carol", "p3", "nobody", "x", 1),
		comment("bob", "p2", "", "", 0),
	}
	children, tier := ChildrenWithTier(target, set)
	if tier != TierFallback {
		t.Errorf("tier = %v, want fallback", tier)
	}
	if got := keys(children); !reflect.DeepEqual(got, []string{"alice/p1", "bob/p2"}) {
		t.Errorf("children = %v", got)
	}
}

func TestDepthCheckIsSoft(t *testing.T) {
	root := comment("alice", "post1", "", "", 0)
	noDepth := models.Comment{Author: "bob", Permlink: "c1", ParentAuthor: "alice", ParentPermlink: "post1"}
	wrongDepth := comment("carol", "c2", "alice", "post1", 5)
	set := []models.Comment{root, noDepth, wrongDepth}

	if got := keys(Children(root, set)); !reflect.DeepEqual(got, []string{"bob/c1"}) {
		t.Errorf("children = %v, want only the record without depth", got)
	}
}

func TestTopLevelAttachesOrphans(t *testing.T) {
	set := []models.Comment{
		comment("alice", "post1", "", "", 0),
		comment("erin", "c9", "ghost", "missing", 2),
		comment("bob", "c1", "alice", "post1", 1),
		comment("frank", "c10", "erin", "c9", 3),
	}
	top := TopLevel(set[0], set)
	if got := keys(top); !reflect.DeepEqual(got, []string{"bob/c1", "erin/c9"}) {
		t.Errorf("top level = %v", got)
	}
}

func TestTopLevelLiftsDetachedSubtreeWhole(t *testing.T) {
	// the child is listed before its orphaned parent
	set := []models.Comment{
		comment("alice", "post1", "", "", 0),
		comment("frank", "c10", "erin", "c9", 3),
		comment("erin", "c9", "ghost", "missing", 2),
	}
	if got := keys(TopLevel(set[0], set)); !reflect.DeepEqual(got, []string{"erin/c9"}) {
		t.Errorf("top level = %v", got)
	}
}

func TestTopLevelSurvivesCycles(t *testing.T) {
	set := []models.Comment{
		comment("alice", "post1", "", "", 0),
		comment("a", "x", "b", "y", 2),
		comment("b", "y", "a", "x", 3),
	}
	top := TopLevel(set[0], set)
	if len(top) == 0 {
		t.Fatal("cycle members must still be attached")
	}
}
