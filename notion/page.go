package notion

import (
	"net/url"
	"strings"
	"time"
)

// PropertyType is the type tag of a page property.
type PropertyType string

const (
	PropertyTitle       PropertyType = "title"
	PropertyRichText    PropertyType = "rich_text"
	PropertyURL         PropertyType = "url"
	PropertyDate        PropertyType = "date"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyCheckbox    PropertyType = "checkbox"
)

// Property is a page property value. Only the field matching Type is populated;
// properties of any other type decode with just ID and Type set, and every
// accessor returns its zero value for them.
type Property struct {
	ID          string         `json:"id"`
	Type        PropertyType   `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Checkbox    bool           `json:"checkbox,omitempty"`
}

// SelectOption is one option of a select or multi-select property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Known reports whether the property has one of the shapes this package models.
func (p Property) Known() bool {
	switch p.Type {
	case PropertyTitle, PropertyRichText, PropertyURL, PropertyDate, PropertyMultiSelect, PropertyCheckbox:
		return true
	}
	return false
}

// Text returns the first run of a title or rich_text property, or the URL of a
// url property.
func (p Property) Text() string {
	switch p.Type {
	case PropertyTitle:
		return FirstPlainText(p.Title)
	case PropertyRichText:
		return FirstPlainText(p.RichText)
	case PropertyURL:
		return p.URLValue()
	}
	return ""
}

// URLValue returns the value of a url property.
func (p Property) URLValue() string {
	if p.Type != PropertyURL || p.URL == nil {
		return ""
	}
	return *p.URL
}

// DateStart returns the start of a date property.
func (p Property) DateStart() string {
	if p.Type != PropertyDate || p.Date == nil {
		return ""
	}
	return p.Date.Start
}

// Names returns the option names of a multi_select property.
func (p Property) Names() []string {
	if p.Type != PropertyMultiSelect {
		return nil
	}
	names := make([]string, 0, len(p.MultiSelect))
	for _, o := range p.MultiSelect {
		names = append(names, o.Name)
	}
	return names
}

// Checked returns the value of a checkbox property.
func (p Property) Checked() bool {
	return p.Type == PropertyCheckbox && p.Checkbox
}

// Page is a Notion page: either a standalone page or a database row.
type Page struct {
	ID             string              `json:"id"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	URL            string              `json:"url"`
	Archived       bool                `json:"archived"`
	Properties     map[string]Property `json:"properties"`
}

// Property returns the named property; ok is false when it is absent.
func (p Page) Property(name string) (Property, bool) {
	prop, ok := p.Properties[name]
	return prop, ok
}

// Title returns the text of the page's title property, whatever it is named
// ("title" on plain pages, the database's title column on rows).
func (p Page) Title() string {
	if prop, ok := p.Properties["title"]; ok && prop.Type == PropertyTitle {
		return prop.Text()
	}
	for _, prop := range p.Properties {
		if prop.Type == PropertyTitle {
			return prop.Text()
		}
	}
	return ""
}

// Description returns the Description property, falling back to the title.
func (p Page) Description() string {
	if d := p.Properties["Description"].Text(); d != "" {
		return d
	}
	return p.Title()
}

// Tags returns the option names of the Tags property.
func (p Page) Tags() []string {
	return p.Properties["Tags"].Names()
}

// Post is a published blog post row from the posts database.
type Post struct {
	ID          string   `json:"id"`
	PageID      string   `json:"page_id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
}

// PostFromPage maps a posts-database row to a Post. Missing or mistyped
// properties yield empty values.
func PostFromPage(p Page) Post {
	pageID := PageIDFromURL(p.Properties["PageURL"].URLValue())
	if pageID == "" {
		pageID = p.ID
	}
	tags := p.Properties["Tags"].Names()
	if tags == nil {
		tags = []string{}
	}
	return Post{
		ID:          p.ID,
		PageID:      pageID,
		Title:       p.Properties["Title"].Text(),
		Slug:        p.Properties["Slug"].Text(),
		Date:        p.Properties["Date"].DateStart(),
		Tags:        tags,
		Category:    p.Properties["Category"].Text(),
		Description: p.Properties["Description"].Text(),
	}
}

// PageIDFromURL extracts the page id from a Notion page URL, e.g.
// https://www.notion.so/My-Post-f8329a8349a84a87b35a824a5f8a6b79 yields
// f8329a8349a84a87b35a824a5f8a6b79. It returns "" when raw is not a URL.
func PageIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	segments := strings.Split(strings.TrimRight(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	parts := strings.Split(last, "-")
	return parts[len(parts)-1]
}

// dbQueryResponse is one page of a database query.
type dbQueryResponse struct {
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}
