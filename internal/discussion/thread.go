package discussion

import (
	"html/template"

	"threadkit/internal/interaction"
	"threadkit/internal/models"
	"threadkit/internal/utils"
)

const (
	DefaultMaxDepth   = 4
	DefaultTruncateAt = 400
)

// Renderer turns markup source into displayable HTML.
type Renderer interface {
	Render(source string) template.HTML
}

// Options bound a walk.
type Options struct {
	MaxDepth   int
	TruncateAt int // sanitized body runes above which a node offers a body toggle
	Query      string
	Renderer   Renderer
	Subtree    bool // root is a reply; show only its descendants, no orphans
	Flags      map[string]interaction.Flags
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.TruncateAt <= 0 {
		o.TruncateAt = DefaultTruncateAt
	}
	return o
}

// Node is one rendered reply.
type Node struct {
	Comment      models.Comment    `json:"comment"`
	Key          string            `json:"key"`
	Level        int               `json:"level"`
	BodyHTML     template.HTML     `json:"body_html"`
	Truncatable  bool              `json:"truncatable"`
	BodyExpanded bool              `json:"body_expanded"`
	Collapsed    bool              `json:"collapsed"`
	Children     []*Node           `json:"children,omitempty"`
	HiddenCount  int               `json:"hidden_count,omitempty"`
	Escape       string            `json:"escape,omitempty"` // key of the expanded view holding the hidden replies
	Flags        interaction.Flags `json:"flags"`
}

// ThreadView is the bounded tree under a root.
type ThreadView struct {
	Root  models.Comment `json:"root"`
	Query string         `json:"query,omitempty"`
	Nodes []*Node        `json:"nodes"`
	Total int            `json:"total"` // records in the (filtered) set, root excluded
}

// Walk renders the replies under root, depth first, starting at the root's
// children (the root itself is never a reply). Nodes at opts.MaxDepth are not
// recursed into; they report how many descendants were held back instead.
func Walk(root models.Comment, set []models.Comment, opts Options) *ThreadView {
	opts = opts.withDefaults()
	rootKey := root.Key().String()
	view := &ThreadView{Root: root, Query: opts.Query}

	visited := map[string]bool{rootKey: true}
	var top []models.Comment
	if opts.Subtree {
		top = Children(root, set)
		view.Total = countDescendants(root, set, visited)
	} else {
		top = TopLevel(root, set)
		for _, c := range set {
			if c.Key().String() != rootKey {
				view.Total++
			}
		}
	}

	for _, c := range top {
		if n := walkNode(c, set, 1, opts, visited); n != nil {
			view.Nodes = append(view.Nodes, n)
		}
	}
	return view
}

func walkNode(c models.Comment, set []models.Comment, level int, opts Options, visited map[string]bool) *Node {
	key := c.Key().String()
	if visited[key] {
		return nil
	}
	visited[key] = true

	flags := opts.Flags[key]
	n := &Node{
		Comment:      c,
		Key:          key,
		Level:        level,
		Truncatable:  utils.RuneLen(c.Body) > opts.TruncateAt,
		BodyExpanded: flags.BodyExpanded,
		Collapsed:    flags.Collapsed,
		Flags:        flags,
	}
	n.BodyHTML = renderBody(c.Body, n.Truncatable && !n.BodyExpanded, opts)

	if level >= opts.MaxDepth {
		n.HiddenCount = countDescendants(c, set, visited)
		if n.HiddenCount > 0 {
			n.Escape = key
		}
		return n
	}
	for _, child := range Children(c, set) {
		if cn := walkNode(child, set, level+1, opts, visited); cn != nil {
			n.Children = append(n.Children, cn)
		}
	}
	return n
}

// renderBody uses the literal highlighted source while a query is active and the
// render engine otherwise.
func renderBody(body string, truncate bool, opts Options) template.HTML {
	if truncate {
		body = utils.Truncate(body, opts.TruncateAt)
	}
	if opts.Query != "" || opts.Renderer == nil {
		return Highlight(body, opts.Query)
	}
	return opts.Renderer.Render(body)
}

// countDescendants counts c's subtree without marking it visited, so the
// expanded view can still render it.
func countDescendants(c models.Comment, set []models.Comment, visited map[string]bool) int {
	seen := map[string]bool{c.Key().String(): true}
	var count func(models.Comment) int
	count = func(p models.Comment) int {
		total := 0
		for _, child := range Children(p, set) {
			k := child.Key().String()
			if seen[k] || visited[k] {
				continue
			}
			seen[k] = true
			total += 1 + count(child)
		}
		return total
	}
	return count(c)
}

// Find returns the node with key anywhere in the view.
func (v *ThreadView) Find(key string) *Node {
	var find func([]*Node) *Node
	find = func(nodes []*Node) *Node {
		for _, n := range nodes {
			if n.Key == key {
				return n
			}
			if found := find(n.Children); found != nil {
				return found
			}
		}
		return nil
	}
	return find(v.Nodes)
}
