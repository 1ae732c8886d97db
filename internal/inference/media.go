package inference

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const maxPhotoBytes = 10 << 20 // 10 MB per photo

// PhotoFetcher downloads already-uploaded photos so they can be attached
// to component analysis requests as evidence blobs.
type PhotoFetcher struct {
	client *http.Client
}

func NewPhotoFetcher(timeout time.Duration) *PhotoFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PhotoFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads a single photo and wraps it as an evidence blob.
func (f *PhotoFetcher) Fetch(ctx context.Context, url string) (Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Blob{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Blob{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Blob{}, fmt.Errorf("photo fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return Blob{}, err
	}

	return Blob{
		MIMEType: DetectImageMIMEType(data),
		Data:     data,
	}, nil
}

// FetchAll downloads the given photo URLs. Unreachable photos are skipped
// with a warning; component analysis proceeds on whatever evidence loaded.
func (f *PhotoFetcher) FetchAll(ctx context.Context, urls []string) []Blob {
	var blobs []Blob
	for _, url := range urls {
		blob, err := f.Fetch(ctx, url)
		if err != nil {
			log.Printf("Inference: skipping photo %s: %v", url, err)
			continue
		}
		blobs = append(blobs, blob)
	}
	return blobs
}

// DetectImageMIMEType detects the MIME type of an image based on magic bytes
func DetectImageMIMEType(data []byte) string {
	if len(data) < 8 {
		return "image/jpeg" // default fallback
	}

	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}

	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}

	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}

	// WebP: 52 49 46 46 ... 57 45 42 50
	if data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 {
		if len(data) > 11 && data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
			return "image/webp"
		}
	}

	return "image/jpeg"
}
