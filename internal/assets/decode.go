package assets

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/crypto/blake2b"
)

// TextureHandle is a decoded texture ready for the renderer to upload.
type TextureHandle struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// Digest is the hex BLAKE2b-256 of the fetched bytes.
	Digest string `json:"digest"`

	Image image.Image `json:"-"`
}

// DecodeTexture decodes a fetched image. Images wider or taller than maxSize
// are downscaled to fit; maxSize <= 0 keeps the original size.
func DecodeTexture(a *Asset, maxSize int) (*TextureHandle, error) {
	var (
		img    image.Image
		format string
		err    error
	)
	if strings.HasSuffix(strings.ToLower(a.Path), ".tga") {
		img, err = tga.Decode(bytes.NewReader(a.Body))
		format = "tga"
	} else {
		img, format, err = image.Decode(bytes.NewReader(a.Body))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.Path, err)
	}

	b := img.Bounds()
	if maxSize > 0 && (b.Dx() > maxSize || b.Dy() > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
		b = img.Bounds()
	}

	return &TextureHandle{
		Path:   a.Path,
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Digest: Digest(a.Body),
		Image:  img,
	}, nil
}

// Digest returns the hex BLAKE2b-256 of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
