package pubnotion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/pubnotion/notion"
)

const (
	maxImageWidth   = 1200
	jpegQuality     = 80
	maxDownloadSize = 20 << 20 // 20MB
)

var errNotImage = errors.New("pubnotion: block is not an image")

// processImage decodes an image from src, resizes it to maxImageWidth if it
// is wider, and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// mediaCache holds processed images by block id.
type mediaCache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.Mutex
	items map[string]mediaItem
}

type mediaItem struct {
	data    []byte
	fetched time.Time
}

func newMediaCache(ttl time.Duration) *mediaCache {
	return &mediaCache{ttl: ttl, now: time.Now, items: make(map[string]mediaItem)}
}

func (m *mediaCache) get(ctx context.Context, id string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	m.mu.Lock()
	item, ok := m.items[id]
	m.mu.Unlock()
	if ok && m.now().Sub(item.fetched) < m.ttl {
		return item.data, nil
	}

	v, err, _ := m.group.Do(id, func() (any, error) {
		data, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		m.store(id, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// store caches data under id and drops expired entries. Sweeping only on
// loads keeps hits constant-time.
func (m *mediaCache) store(id string, data []byte) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, it := range m.items {
		if now.Sub(it.fetched) >= m.ttl {
			delete(m.items, k)
		}
	}
	m.items[id] = mediaItem{data: data, fetched: now}
}

func (m *mediaCache) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// handleMedia serves a Notion-hosted image by block id. The block is re-read
// on every cache miss because the signed file URL it carries expires.
func (a *App) handleMedia(c echo.Context) error {
	id, ok := strings.CutSuffix(c.Param("file"), ".jpg")
	if !ok || !validPageID(id) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	data, err := a.media.get(c.Request().Context(), id, func(ctx context.Context) ([]byte, error) {
		return a.loadImage(ctx, id)
	})
	if errors.Is(err, ErrNotFound) || errors.Is(err, errNotImage) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

func (a *App) loadImage(ctx context.Context, blockID string) ([]byte, error) {
	b, err := a.Source.GetBlock(ctx, blockID)
	if err != nil {
		return nil, err
	}
	src := b.Image.URL()
	if b.Type != notion.BlockImage || src == "" {
		return nil, errNotImage
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("media %s: %w", blockID, err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media %s: download: %w", blockID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media %s: download: %s", blockID, resp.Status)
	}

	data, err := processImage(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("media %s: %w", blockID, err)
	}
	return data, nil
}
