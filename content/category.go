package content

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/eringen/pubnotion/notion"
)

// Uncategorized is the category of posts with no category path.
const Uncategorized = "Uncategorized"

// NodeKind discriminates category tree nodes.
type NodeKind int

const (
	KindCategory NodeKind = iota
	KindPost
)

// CategoryNode is a category (Name, Children) or a post leaf (PostID, Title, Slug).
// Children iterate in insertion order.
type CategoryNode struct {
	Kind     NodeKind
	Name     string
	Children *orderedmap.OrderedMap[string, *CategoryNode]

	PostID string
	Title  string
	Slug   string
}

func newCategory(name string) *CategoryNode {
	return &CategoryNode{
		Kind:     KindCategory,
		Name:     name,
		Children: orderedmap.New[string, *CategoryNode](),
	}
}

// IsCategory reports whether n is a category node.
func (n *CategoryNode) IsCategory() bool { return n != nil && n.Kind == KindCategory }

// Len returns the number of direct children.
func (n *CategoryNode) Len() int {
	if n == nil || n.Children == nil {
		return 0
	}
	return n.Children.Len()
}

// Each calls fn for every direct child in order.
func (n *CategoryNode) Each(fn func(key string, child *CategoryNode)) {
	if n == nil || n.Children == nil {
		return
	}
	for p := n.Children.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// Child returns the direct child stored under key.
func (n *CategoryNode) Child(key string) (*CategoryNode, bool) {
	if n == nil || n.Children == nil {
		return nil, false
	}
	return n.Children.Get(key)
}

// Walk visits the tree depth-first in order. depth is 0 for n itself.
func (n *CategoryNode) Walk(fn func(node *CategoryNode, depth int)) {
	n.walk(fn, 0)
}

func (n *CategoryNode) walk(fn func(*CategoryNode, int), depth int) {
	if n == nil {
		return
	}
	fn(n, depth)
	n.Each(func(_ string, child *CategoryNode) {
		child.walk(fn, depth+1)
	})
}

// Equal reports whether two trees have the same shape, keys, order and leaves.
func (n *CategoryNode) Equal(o *CategoryNode) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind || n.Name != o.Name || n.PostID != o.PostID || n.Title != o.Title || n.Slug != o.Slug {
		return false
	}
	if n.Len() != o.Len() {
		return false
	}
	if n.Len() == 0 {
		return true
	}
	a, b := n.Children.Oldest(), o.Children.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return a == nil && b == nil
}

// BuildCategoryTree groups posts by their slash-delimited category path. The
// root is a category with an empty name. A post whose title already exists in
// its final category replaces the earlier leaf in place.
func BuildCategoryTree(posts []notion.Post) *CategoryNode {
	root := newCategory("")
	for _, post := range posts {
		path := post.Category
		if path == "" {
			path = Uncategorized
		}
		node := root
		for _, part := range strings.Split(path, "/") {
			child, ok := node.Children.Get(part)
			if !ok || !child.IsCategory() {
				child = newCategory(part)
				node.Children.Set(part, child)
			}
			node = child
		}
		node.Children.Set(post.Title, &CategoryNode{
			Kind:   KindPost,
			Name:   post.Title,
			PostID: post.ID,
			Title:  post.Title,
			Slug:   post.Slug,
		})
	}
	return root
}
