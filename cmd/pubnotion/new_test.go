package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestToTitle(t *testing.T) {
	tests := map[string]string{
		"my-blog": "My Blog",
		"myblog":  "Myblog",
		"a--b":    "A  B",
		"":        "",
	}
	for in, want := range tests {
		if got := toTitle(in); got != want {
			t.Errorf("toTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteScaffold(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "field-notes")
	data := scaffoldData{ProjectName: "field-notes", ModuleName: "example.com/me/field-notes", SiteName: "Field Notes"}
	if err := writeScaffold(dir, data, io.Discard); err != nil {
		t.Fatalf("writeScaffold: %v", err)
	}

	for _, name := range []string{"go.mod", "main.go", ".env.example", ".gitignore", "static/.gitkeep"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(mod), "module example.com/me/field-notes\n") {
		t.Errorf("go.mod = %q", mod)
	}
	src, err := os.ReadFile(filepath.Join(dir, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), `Name:          "Field Notes"`) {
		t.Error("main.go missing site name")
	}
}
