package pubnotion

import (
	"strings"

	"github.com/eringen/pubnotion/notion"
	"github.com/eringen/pubnotion/views"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	return views.BuildURL(base, pathSegments...)
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// validPageID accepts Notion ids in compact (32 hex) or dashed (8-4-4-4-12) form.
func validPageID(id string) bool {
	switch len(id) {
	case 32:
	case 36:
		for _, i := range []int{8, 13, 18, 23} {
			if id[i] != '-' {
				return false
			}
		}
	default:
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F', r == '-':
		default:
			return false
		}
	}
	return true
}

// mediaURL points Notion-hosted images at the media proxy, since their signed
// URLs expire. External images are linked directly.
func mediaURL(b notion.Block) string {
	if b.Image.Hosted() {
		return "/media/" + b.ID + ".jpg"
	}
	return b.Image.URL()
}

// hostedImageIDs returns the ids of Notion-hosted image blocks in the tree.
func hostedImageIDs(blocks []notion.Block) []string {
	var ids []string
	var walk func([]notion.Block)
	walk = func(bs []notion.Block) {
		for _, b := range bs {
			if b.Type == notion.BlockImage && b.Image.Hosted() {
				ids = append(ids, b.ID)
			}
			walk(b.Children)
		}
	}
	walk(blocks)
	return ids
}

// mentionedPageIDs returns the distinct ids of pages mentioned in the tree's
// rich text, in first-seen order.
func mentionedPageIDs(blocks []notion.Block) []string {
	seen := make(map[string]struct{})
	var ids []string
	var walk func([]notion.Block)
	walk = func(bs []notion.Block) {
		for _, b := range bs {
			for _, rt := range b.RichText() {
				if rt.Mention == nil || !rt.Mention.Valid() || rt.Mention.Type != notion.MentionPage {
					continue
				}
				id := rt.Mention.Page.ID
				if _, ok := seen[id]; ok || !validPageID(id) {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
			walk(b.Children)
		}
	}
	walk(blocks)
	return ids
}
