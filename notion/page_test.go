package notion

import (
	"encoding/json"
	"testing"
)

func TestPageIDFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.notion.so/My-Post-Title-f8329a8349a84a87b35a824a5f8a6b79", "f8329a8349a84a87b35a824a5f8a6b79"},
		{"https://www.notion.so/ws/f8329a8349a84a87b35a824a5f8a6b79", "f8329a8349a84a87b35a824a5f8a6b79"},
		{"https://www.notion.so/Title-abc/", "abc"},
		{"", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := PageIDFromURL(tt.in); got != tt.want {
			t.Errorf("PageIDFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPostFromPageMissingFields(t *testing.T) {
	t.Parallel()

	p := Page{ID: "row-1", Properties: map[string]Property{
		"Title": {Type: PropertyTitle},
		"Tags":  {Type: PropertyMultiSelect},
	}}
	post := PostFromPage(p)
	if post.PageID != "row-1" {
		t.Fatalf("PageID = %q, want row id fallback", post.PageID)
	}
	if post.Title != "" || post.Slug != "" || post.Date != "" || post.Category != "" {
		t.Fatalf("expected empty strings, got %+v", post)
	}
	if post.Tags == nil || len(post.Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", post.Tags)
	}
}

func TestUnknownPropertyAccessors(t *testing.T) {
	t.Parallel()

	var p Property
	if err := json.Unmarshal([]byte(`{"id":"x","type":"formula","formula":{"type":"number","number":3}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Known() {
		t.Fatal("formula should not be known")
	}
	if p.Text() != "" || p.URLValue() != "" || p.DateStart() != "" || p.Names() != nil || p.Checked() {
		t.Fatalf("unknown property leaked a value: %+v", p)
	}
}

func TestMistypedPropertyReturnsZero(t *testing.T) {
	t.Parallel()

	p := Property{Type: PropertyRichText, RichText: []RichText{{PlainText: "x"}}}
	if p.URLValue() != "" {
		t.Fatal("rich_text should not yield a url")
	}
	if p.Text() != "x" {
		t.Fatalf("Text = %q", p.Text())
	}
}

func TestPageTitleAndDescription(t *testing.T) {
	t.Parallel()

	p := Page{Properties: map[string]Property{
		"Name": {Type: PropertyTitle, Title: []RichText{{PlainText: "Hello"}, {PlainText: " world"}}},
	}}
	if p.Title() != "Hello" {
		t.Fatalf("Title = %q", p.Title())
	}
	if p.Description() != "Hello" {
		t.Fatalf("Description should fall back to title, got %q", p.Description())
	}
	p.Properties["Description"] = Property{Type: PropertyRichText, RichText: []RichText{{PlainText: "About"}}}
	if p.Description() != "About" {
		t.Fatalf("Description = %q", p.Description())
	}
}

func TestMentionValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    *Mention
		want bool
	}{
		{"nil", nil, false},
		{"page", &Mention{Type: MentionPage, Page: &PageRef{ID: "p"}}, true},
		{"mismatch", &Mention{Type: MentionUser, Page: &PageRef{ID: "p"}}, false},
		{"two variants", &Mention{Type: MentionPage, Page: &PageRef{}, Date: &DateValue{}}, false},
		{"none", &Mention{Type: MentionDate}, false},
	}
	for _, tt := range tests {
		if got := tt.m.Valid(); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestImageURL(t *testing.T) {
	t.Parallel()

	ext := &ImageBlock{Type: "external", External: &FileRef{URL: "https://x/a.png"}}
	if ext.URL() != "https://x/a.png" || ext.Hosted() {
		t.Fatalf("external image: url=%q hosted=%v", ext.URL(), ext.Hosted())
	}
	file := &ImageBlock{Type: "file", File: &FileRef{URL: "https://s3/b.png"}}
	if file.URL() != "https://s3/b.png" || !file.Hosted() {
		t.Fatalf("file image: url=%q hosted=%v", file.URL(), file.Hosted())
	}
}

func TestDateValueTime(t *testing.T) {
	t.Parallel()

	d := &DateValue{Start: "2024-05-01"}
	tm, ok := d.Time()
	if !ok || tm.Year() != 2024 || tm.Month() != 5 {
		t.Fatalf("Time() = %v, %v", tm, ok)
	}
	if _, ok := (&DateValue{Start: "garbage"}).Time(); ok {
		t.Fatal("garbage date should not parse")
	}
}
