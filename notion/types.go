// Package notion models the Notion document API (blocks, rich text, pages and
// database rows) and provides a small REST client for the endpoints the blog reads.
package notion

import (
	"strings"
	"time"
)

// BlockType is the type tag of a block.
type BlockType string

const (
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockParagraph        BlockType = "paragraph"
	BlockImage            BlockType = "image"
	BlockCode             BlockType = "code"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockTableOfContents  BlockType = "table_of_contents"
	BlockBookmark         BlockType = "bookmark"
	BlockColumnList       BlockType = "column_list"
	BlockColumn           BlockType = "column"
	BlockToggle           BlockType = "toggle"
)

// HeadingLevel returns 1-3 for heading blocks and 0 for everything else.
func (t BlockType) HeadingLevel() int {
	switch t {
	case BlockHeading1:
		return 1
	case BlockHeading2:
		return 2
	case BlockHeading3:
		return 3
	}
	return 0
}

// Block is one node of a page's content tree.
//
// Children is nil until the block has been expanded by a fetch. After a fetch it
// is non-nil exactly when HasChildren is true.
type Block struct {
	ID          string    `json:"id"`
	Type        BlockType `json:"type"`
	HasChildren bool      `json:"has_children"`

	Paragraph        *TextBlock     `json:"paragraph,omitempty"`
	Heading1         *TextBlock     `json:"heading_1,omitempty"`
	Heading2         *TextBlock     `json:"heading_2,omitempty"`
	Heading3         *TextBlock     `json:"heading_3,omitempty"`
	BulletedListItem *TextBlock     `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock     `json:"numbered_list_item,omitempty"`
	Toggle           *TextBlock     `json:"toggle,omitempty"`
	Code             *CodeBlock     `json:"code,omitempty"`
	Image            *ImageBlock    `json:"image,omitempty"`
	Bookmark         *BookmarkBlock `json:"bookmark,omitempty"`
	TableOfContents  *ColorBlock    `json:"table_of_contents,omitempty"`

	Children []Block `json:"children,omitempty"`
}

// TextBlock is the payload shared by paragraphs, headings, list items and toggles.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
}

// CodeBlock is the payload of a code block.
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Caption  []RichText `json:"caption,omitempty"`
	Language string     `json:"language"`
}

// ImageBlock is the payload of an image block. Type is "external" or "file";
// "file" URLs are signed by Notion and expire after about an hour.
type ImageBlock struct {
	Type     string     `json:"type"`
	External *FileRef   `json:"external,omitempty"`
	File     *FileRef   `json:"file,omitempty"`
	Caption  []RichText `json:"caption"`
}

// FileRef points at a hosted file.
type FileRef struct {
	URL        string     `json:"url"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
}

// URL returns the image source regardless of hosting type.
func (i *ImageBlock) URL() string {
	if i == nil {
		return ""
	}
	if i.Type == "external" && i.External != nil {
		return i.External.URL
	}
	if i.File != nil {
		return i.File.URL
	}
	if i.External != nil {
		return i.External.URL
	}
	return ""
}

// Hosted reports whether the image is stored by Notion (and so has an expiring URL).
func (i *ImageBlock) Hosted() bool {
	return i != nil && i.Type == "file" && i.File != nil
}

// BookmarkBlock is the payload of a bookmark block.
type BookmarkBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption"`
}

// ColorBlock is a payload that only carries a color (table_of_contents).
type ColorBlock struct {
	Color string `json:"color"`
}

// RichText returns the rich-text runs of text-bearing block types.
func (b Block) RichText() []RichText {
	var tb *TextBlock
	switch b.Type {
	case BlockParagraph:
		tb = b.Paragraph
	case BlockHeading1:
		tb = b.Heading1
	case BlockHeading2:
		tb = b.Heading2
	case BlockHeading3:
		tb = b.Heading3
	case BlockBulletedListItem:
		tb = b.BulletedListItem
	case BlockNumberedListItem:
		tb = b.NumberedListItem
	case BlockToggle:
		tb = b.Toggle
	case BlockCode:
		if b.Code != nil {
			return b.Code.RichText
		}
		return nil
	}
	if tb == nil {
		return nil
	}
	return tb.RichText
}

// RichTextType discriminates rich-text runs.
type RichTextType string

const (
	RichTextText     RichTextType = "text"
	RichTextMention  RichTextType = "mention"
	RichTextEquation RichTextType = "equation"
)

// RichText is a styled span of inline text.
type RichText struct {
	Type        RichTextType `json:"type"`
	PlainText   string       `json:"plain_text"`
	Href        *string      `json:"href"`
	Annotations Annotations  `json:"annotations"`
	Mention     *Mention     `json:"mention,omitempty"`
	Equation    *Equation    `json:"equation,omitempty"`
}

// Link returns the explicit hyperlink target, or "".
func (r RichText) Link() string {
	if r.Href == nil {
		return ""
	}
	return *r.Href
}

// Annotations are the inline styles of a run.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// MentionType discriminates mentions.
type MentionType string

const (
	MentionPage MentionType = "page"
	MentionUser MentionType = "user"
	MentionDate MentionType = "date"
)

// Mention is a reference embedded in rich text. Exactly one of Page, User or
// Date is set, matching Type.
type Mention struct {
	Type MentionType `json:"type"`
	Page *PageRef    `json:"page,omitempty"`
	User *User       `json:"user,omitempty"`
	Date *DateValue  `json:"date,omitempty"`
}

// Valid reports whether exactly the sub-variant named by Type is populated.
func (m *Mention) Valid() bool {
	if m == nil {
		return false
	}
	n := 0
	if m.Page != nil {
		n++
	}
	if m.User != nil {
		n++
	}
	if m.Date != nil {
		n++
	}
	if n != 1 {
		return false
	}
	switch m.Type {
	case MentionPage:
		return m.Page != nil
	case MentionUser:
		return m.User != nil
	case MentionDate:
		return m.Date != nil
	}
	return false
}

// PageRef references another page.
type PageRef struct {
	ID string `json:"id"`
}

// User is a workspace member.
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Person *Person `json:"person,omitempty"`
}

// Person carries a user's email.
type Person struct {
	Email string `json:"email"`
}

// Display returns the email if known, else the name.
func (u *User) Display() string {
	if u == nil {
		return ""
	}
	if u.Person != nil && u.Person.Email != "" {
		return u.Person.Email
	}
	return u.Name
}

// DateValue is a date or date range as sent by Notion (ISO 8601 strings).
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

// Time parses Start, accepting both date-only and full timestamps.
func (d *DateValue) Time() (time.Time, bool) {
	if d == nil || d.Start == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, d.Start); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", d.Start); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Equation is an inline KaTeX expression.
type Equation struct {
	Expression string `json:"expression"`
}

// PlainText concatenates the plain text of runs.
func PlainText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return b.String()
}

// FirstPlainText returns the first run's plain text, or "" when there are no runs.
func FirstPlainText(runs []RichText) string {
	if len(runs) == 0 {
		return ""
	}
	return runs[0].PlainText
}

// BlockList is one page of block children.
type BlockList struct {
	Results    []Block `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Cursor returns the continuation cursor, or "" when this was the last page.
func (l BlockList) Cursor() string {
	if l.NextCursor == nil {
		return ""
	}
	return *l.NextCursor
}
