// Package fetcher downloads images by URL and checks that they decode.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrFetch is returned when the image could not be retrieved.
	ErrFetch = errors.New("fetch failed")
	// ErrDecode is returned when the retrieved bytes are not a supported image.
	ErrDecode = errors.New("decode failed")
)

// Image is a fetched image. Data holds the original encoded bytes.
type Image struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// MIME returns the media type matching Format.
func (i *Image) MIME() string {
	return "image/" + i.Format
}

type Fetcher struct {
	logger   *log.Logger
	client   *http.Client
	maxBytes  int64
	maxPixels int64
}

// New returns a Fetcher. Non-positive maxBytes or maxPixels disable the
// matching limit.
func New(logger *log.Logger, client *http.Client, maxBytes, maxPixels int64) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		logger:   logger,
		client:   client,
		maxBytes:  maxBytes,
		maxPixels: maxPixels,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s for url: %s", ErrFetch, resp.Status, url)
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrFetch, f.maxBytes)
	}

	// Decoders allocate the whole frame up front, so check the declared size
	// before decoding any pixels.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if f.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > f.maxPixels {
		return nil, fmt.Errorf("%w: image %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, f.maxPixels)
	}

	// Full decode catches truncated or corrupt pixel data, not just a bad header.
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	bounds := img.Bounds()

	f.logger.Printf("fetched %s image %dx%d (%d bytes)\n", format, bounds.Dx(), bounds.Dy(), len(data))
	return &Image{
		Data:   data,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
