// Package content turns a hierarchical content source into fully expanded
// block trees, category trees and heading lists.
package content

import (
	"context"

	"github.com/eringen/pubnotion/notion"
)

// Source is the hierarchical content source the blog reads from.
// *notion.Client implements it.
type Source interface {
	ListChildren(ctx context.Context, blockID, cursor string) (notion.BlockList, error)
	GetPage(ctx context.Context, pageID string) (notion.Page, error)
	QueryPublished(ctx context.Context) ([]notion.Post, error)
	FindBySlug(ctx context.Context, slug string) (*notion.Post, error)
}

var _ Source = (*notion.Client)(nil)

// Content is a page together with its fully expanded block tree.
type Content struct {
	Page   notion.Page
	Blocks []notion.Block
}
