package content

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubnotion/notion"
)

const (
	DefaultMaxDepth    = 32
	DefaultConcurrency = 8
)

// ErrMaxDepth is returned when a block tree nests deeper than the fetcher allows.
var ErrMaxDepth = errors.New("content: maximum nesting depth exceeded")

// Fetcher expands block trees from a Source.
type Fetcher struct {
	Source Source
	// MaxDepth bounds nesting below the root. Levels deeper than this fail
	// with ErrMaxDepth.
	MaxDepth int
	// Concurrency bounds sibling expansions in flight per level.
	Concurrency int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxDepth sets Fetcher.MaxDepth.
func WithMaxDepth(n int) FetcherOption {
	return func(f *Fetcher) { f.MaxDepth = n }
}

// WithConcurrency sets Fetcher.Concurrency.
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) { f.Concurrency = n }
}

// NewFetcher returns a Fetcher reading from src.
func NewFetcher(src Source, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{Source: src}
	for _, opt := range opts {
		opt(f)
	}
	f.setDefaults()
	return f
}

func (f *Fetcher) setDefaults() {
	f.MaxDepth, f.Concurrency = f.limits()
}

// limits returns MaxDepth and Concurrency with defaults applied, so a
// zero-value Fetcher literal works without NewFetcher.
func (f *Fetcher) limits() (maxDepth, concurrency int) {
	maxDepth, concurrency = f.MaxDepth, f.Concurrency
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return maxDepth, concurrency
}

// FetchContentTree fetches a page's metadata and its complete block tree
// concurrently. Either failure fails the call.
func (f *Fetcher) FetchContentTree(ctx context.Context, pageID string) (Content, error) {
	var c Content
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := f.Source.GetPage(gctx, pageID)
		if err != nil {
			return fmt.Errorf("get page %s: %w", pageID, err)
		}
		c.Page = page
		return nil
	})
	g.Go(func() error {
		blocks, err := f.FetchChildren(gctx, pageID)
		if err != nil {
			return err
		}
		c.Blocks = blocks
		return nil
	})
	if err := g.Wait(); err != nil {
		return Content{}, err
	}
	return c, nil
}

// FetchChildren returns the ordered children of blockID with every child that
// reports children expanded to full depth. Any failure fails the whole fetch.
func (f *Fetcher) FetchChildren(ctx context.Context, blockID string) ([]notion.Block, error) {
	return f.fetchLevel(ctx, blockID, 1)
}

func (f *Fetcher) fetchLevel(ctx context.Context, blockID string, depth int) ([]notion.Block, error) {
	maxDepth, limit := f.limits()
	if depth > maxDepth {
		return nil, fmt.Errorf("expand block %s at depth %d: %w", blockID, depth, ErrMaxDepth)
	}

	// Each source page keeps its own backing array so that goroutines writing
	// children into earlier pages are never invalidated by later appends.
	var pages [][]notion.Block
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	cursor := ""
	for {
		list, err := f.Source.ListChildren(gctx, blockID, cursor)
		if err != nil {
			// A failed expansion cancels gctx, which fails this listing too;
			// report the expansion's error, not the cancellation.
			if werr := g.Wait(); werr != nil {
				return nil, werr
			}
			return nil, fmt.Errorf("list children of %s: %w", blockID, err)
		}
		page := list.Results
		pages = append(pages, page)
		for i := range page {
			if !page[i].HasChildren {
				page[i].Children = nil
				continue
			}
			b := &page[i]
			g.Go(func() error {
				children, err := f.fetchLevel(gctx, b.ID, depth+1)
				if err != nil {
					return err
				}
				if children == nil {
					children = []notion.Block{}
				}
				b.Children = children
				return nil
			})
		}
		cursor = list.Cursor()
		if cursor == "" {
			break
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, p := range pages {
		n += len(p)
	}
	out := make([]notion.Block, 0, n)
	for _, p := range pages {
		out = append(out, p...)
	}
	return out, nil
}
