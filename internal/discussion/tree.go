package discussion

import (
	"threadkit/internal/models"
)

// Tier names which matching rule produced a node's children.
type Tier int

const (
	TierLeaf Tier = iota
	TierPrimary
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierFallback:
		return "fallback"
	default:
		return "leaf"
	}
}

// SelectTier decides the matching rule from two observable facts and nothing else.
func SelectTier(primaryEmpty, hasReplyKeys bool) Tier {
	switch {
	case !primaryEmpty:
		return TierPrimary
	case hasReplyKeys:
		return TierFallback
	default:
		return TierLeaf
	}
}

// Children returns target's direct children in set encounter order.
func Children(target models.Comment, set []models.Comment) []models.Comment {
	children, _ := ChildrenWithTier(target, set)
	return children
}

// ChildrenWithTier is Children plus the tier that matched.
//
// Primary: records pointing back at target whose depth, when known, is target.Depth+1.
// Fallback: only when primary is empty, the records named by target.ReplyKeys,
// whatever their own parent fields say.
func ChildrenWithTier(target models.Comment, set []models.Comment) ([]models.Comment, Tier) {
	primary := primaryMatches(target, set)
	switch SelectTier(len(primary) == 0, len(target.ReplyKeys) > 0) {
	case TierPrimary:
		return primary, TierPrimary
	case TierFallback:
		if fallback := fallbackMatches(target, set); len(fallback) > 0 {
			return fallback, TierFallback
		}
	}
	return nil, TierLeaf
}

func primaryMatches(target models.Comment, set []models.Comment) []models.Comment {
	var out []models.Comment
	for _, c := range set {
		if c.ParentAuthor != target.Author || c.ParentPermlink != target.Permlink {
			continue
		}
		if c.HasDepth && target.HasDepth && c.Depth != target.Depth+1 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func fallbackMatches(target models.Comment, set []models.Comment) []models.Comment {
	want := make(map[string]struct{}, len(target.ReplyKeys))
	for _, k := range target.ReplyKeys {
		want[k] = struct{}{}
	}
	self := target.Key().String()
	var out []models.Comment
	for _, c := range set {
		k := c.Key().String()
		if k == self {
			continue
		}
		if _, ok := want[k]; ok {
			out = append(out, c)
		}
	}
	return out
}

// TopLevel returns the root's children followed by every record the root cannot
// reach: orphans whose parent is missing from set and records detached by the depth
// check. They are attached under the root rather than dropped.
func TopLevel(root models.Comment, set []models.Comment) []models.Comment {
	rootKey := root.Key().String()
	top := Children(root, set)

	reached := map[string]bool{rootKey: true}
	var mark func(c models.Comment)
	mark = func(c models.Comment) {
		k := c.Key().String()
		if reached[k] {
			return
		}
		reached[k] = true
		for _, child := range Children(c, set) {
			mark(child)
		}
	}
	for _, c := range top {
		mark(c)
	}

	// attach in encounter order, lifting each record to its highest unreached
	// ancestor so a detached subtree arrives whole
	byKey := Index(set)
	for _, c := range set {
		if reached[c.Key().String()] {
			continue
		}
		head := c
		seen := map[string]bool{head.Key().String(): true}
		for {
			parent, ok := byKey[head.ParentKey().String()]
			pk := parent.Key().String()
			if !ok || reached[pk] || seen[pk] {
				break
			}
			seen[pk] = true
			head = parent
		}
		top = append(top, head)
		mark(head)
		if k := c.Key().String(); !reached[k] {
			top = append(top, c)
			mark(c)
		}
	}
	return top
}

// Index maps "author/permlink" to the record.
func Index(set []models.Comment) map[string]models.Comment {
	m := make(map[string]models.Comment, len(set))
	for _, c := range set {
		m[c.Key().String()] = c
	}
	return m
}
