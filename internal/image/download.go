package imagepkg

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/youruser/rankcard/internal/util"

	_ "golang.org/x/image/webp"
)

// Fetcher retrieves raw image bytes from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads images over HTTP. Zero Timeout and MaxBytes leave
// the download unbounded.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPFetcher builds a fetcher with its own client.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return util.GetBytes(ctx, f.Client, url, f.MaxBytes)
}

// DownloadImage fetches url with f and decodes the body.
func DownloadImage(ctx context.Context, f Fetcher, url string) (image.Image, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, renderErr(KindFetch, "fetch avatar: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, renderErr(KindDecode, "decode avatar: %w", err)
	}
	return img, nil
}
