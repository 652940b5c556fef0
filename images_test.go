package pubnotion

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

func TestMediaCacheHitsAndExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	m := newMediaCache(time.Hour)
	m.now = func() time.Time { return now }

	loads := 0
	load := func(id string) func(context.Context) ([]byte, error) {
		return func(context.Context) ([]byte, error) {
			loads++
			return []byte(id), nil
		}
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := m.get(ctx, "a", load("a")); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if loads != 1 {
		t.Fatalf("loads = %d, want 1", loads)
	}

	now = now.Add(2 * time.Hour)
	// Loading b sweeps the expired a.
	if _, err := m.get(ctx, "b", load("b")); err != nil {
		t.Fatalf("get: %v", err)
	}
	if n := m.size(); n != 1 {
		t.Fatalf("cache size after sweep = %d, want 1", n)
	}
	if _, err := m.get(ctx, "a", load("a")); err != nil {
		t.Fatalf("get: %v", err)
	}
	if loads != 3 {
		t.Fatalf("loads = %d, want 3", loads)
	}
}

func TestMediaCacheDoesNotStoreErrors(t *testing.T) {
	m := newMediaCache(time.Hour)
	boom := errors.New("boom")
	if _, err := m.get(context.Background(), "a", func(context.Context) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("get error = %v, want boom", err)
	}
	if n := m.size(); n != 0 {
		t.Fatalf("cache size = %d, want 0", n)
	}
}

func TestProcessImage(t *testing.T) {
	out, err := processImage(bytes.NewReader(pngBytes(t, 300, 200)))
	if err != nil {
		t.Fatalf("processImage: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "jpeg" || cfg.Width != 300 || cfg.Height != 200 {
		t.Errorf("got %s %dx%d, want jpeg 300x200", format, cfg.Width, cfg.Height)
	}

	if _, err := processImage(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for non-image input")
	}
}
