package pubnotion

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/pubnotion/content"
	"github.com/eringen/pubnotion/notion"
)

// ErrNotFound is returned when a requested post or page does not exist.
var ErrNotFound = notion.ErrNotFound

// ContentCache keeps the published post list and fetched content trees in
// memory for a TTL. Concurrent misses for the same key share one fetch.
type ContentCache struct {
	src     content.Source
	fetcher *content.Fetcher
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group

	mu      sync.RWMutex
	list    *postList
	bySlug  map[string]cachedPost
	content map[string]cachedContent
}

type postList struct {
	posts   []notion.Post
	tags    []string
	tree    *content.CategoryNode
	fetched time.Time
}

type cachedPost struct {
	post    notion.Post
	fetched time.Time
}

type cachedContent struct {
	content content.Content
	fetched time.Time
}

// NewContentCache creates a ContentCache in front of src.
func NewContentCache(src content.Source, fetcher *content.Fetcher, ttl time.Duration) *ContentCache {
	return &ContentCache{
		src:     src,
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		bySlug:  make(map[string]cachedPost),
		content: make(map[string]cachedContent),
	}
}

func (c *ContentCache) fresh(fetched time.Time) bool {
	return !fetched.IsZero() && c.now().Sub(fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.list = nil
	c.bySlug = make(map[string]cachedPost)
	c.content = make(map[string]cachedContent)
	c.mu.Unlock()
}

// ensureLoaded returns the cached post list, loading it if stale. The load
// is detached from ctx's cancellation since other callers may share it.
func (c *ContentCache) ensureLoaded(ctx context.Context) (*postList, error) {
	c.mu.RLock()
	if l := c.list; l != nil && c.fresh(l.fetched) {
		c.mu.RUnlock()
		return l, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("posts", func() (any, error) {
		posts, err := c.src.QueryPublished(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l := &postList{
			posts:   posts,
			tags:    collectTags(posts),
			tree:    content.BuildCategoryTree(posts),
			fetched: c.now(),
		}
		c.mu.Lock()
		c.list = l
		c.mu.Unlock()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*postList), nil
}

// ListPosts returns published posts, newest first, optionally filtered by tag.
func (c *ContentCache) ListPosts(ctx context.Context, tag string) ([]notion.Post, error) {
	l, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return l.posts, nil
	}
	normalized := normalizeTag(tag)
	var filtered []notion.Post
	for _, p := range l.posts {
		for _, t := range p.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// ListTags returns the distinct tags of published posts, sorted.
func (c *ContentCache) ListTags(ctx context.Context) ([]string, error) {
	l, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return l.tags, nil
}

// Categories returns the category tree of published posts.
func (c *ContentCache) Categories(ctx context.Context) (*content.CategoryNode, error) {
	l, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return l.tree, nil
}

// PostBySlug finds a post by slug. Published posts come from the cached list;
// other slugs are looked up in the database. A missing slug yields ErrNotFound.
func (c *ContentCache) PostBySlug(ctx context.Context, slug string) (notion.Post, error) {
	l, err := c.ensureLoaded(ctx)
	if err != nil {
		return notion.Post{}, err
	}
	for _, p := range l.posts {
		if p.Slug == slug {
			return p, nil
		}
	}

	c.mu.RLock()
	cp, ok := c.bySlug[slug]
	c.mu.RUnlock()
	if ok && c.fresh(cp.fetched) {
		return cp.post, nil
	}

	v, err, _ := c.group.Do("slug:"+slug, func() (any, error) {
		p, err := c.src.FindBySlug(context.WithoutCancel(ctx), slug)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrNotFound
		}
		c.mu.Lock()
		c.bySlug[slug] = cachedPost{post: *p, fetched: c.now()}
		c.mu.Unlock()
		return *p, nil
	})
	if err != nil {
		return notion.Post{}, err
	}
	return v.(notion.Post), nil
}

// Content returns the page metadata and fully expanded block tree of pageID.
func (c *ContentCache) Content(ctx context.Context, pageID string) (content.Content, error) {
	c.mu.RLock()
	cc, ok := c.content[pageID]
	c.mu.RUnlock()
	if ok && c.fresh(cc.fetched) {
		return cc.content, nil
	}

	v, err, _ := c.group.Do("content:"+pageID, func() (any, error) {
		ct, err := c.fetcher.FetchContentTree(context.WithoutCancel(ctx), pageID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.content[pageID] = cachedContent{content: ct, fetched: c.now()}
		c.mu.Unlock()
		return ct, nil
	})
	if err != nil {
		return content.Content{}, err
	}
	return v.(content.Content), nil
}

func collectTags(posts []notion.Post) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, p := range posts {
		for _, t := range p.Tags {
			t = strings.TrimSpace(t)
			key := normalizeTag(t)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
