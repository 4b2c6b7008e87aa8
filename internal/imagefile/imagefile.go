// Package imagefile loads and decodes images from disk or upload streams.
package imagefile

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/webp"
)

// MaxUploadBytes bounds the size of an image read from a request body.
const MaxUploadBytes = 32 << 20

// ErrEmpty is returned for zero-byte input.
var ErrEmpty = errors.New("empty image")

// Load opens and decodes the image at path. Files on disk are read in full;
// MaxUploadBytes only applies to Decode.
func Load(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, format, err := decode(bufio.NewReader(f))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return img, format, nil
}

// Decode decodes an uploaded image from r, reading at most MaxUploadBytes.
func Decode(r io.Reader) (image.Image, string, error) {
	return decode(io.LimitReader(r, MaxUploadBytes))
}

func decode(r io.Reader) (image.Image, string, error) {
	lr := &countingReader{r: r}
	img, format, err := image.Decode(lr)
	if err != nil {
		if lr.n == 0 {
			return nil, "", ErrEmpty
		}
		return nil, "", err
	}
	return img, format, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ContentType maps a decoder format name to a MIME type.
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
