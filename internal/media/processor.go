package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png" // Register PNG decoder
	"net/http"
	"regexp"
	"strings"

	"fashfolio/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MaxDimension = 2048
	WebPQuality  = 80
	webpMIME     = "image/webp"
)

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Stored describes a processed upload.
type Stored struct {
	Key    string `json:"publicId"`
	URL    string `json:"imageUrl"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int    `json:"bytes"`
}

// Processor validates, normalizes and stores uploaded images.
type Processor struct {
	store    Store
	maxBytes int64
}

// NewProcessor returns a Processor writing to store.
func NewProcessor(store Store, maxBytes int64) *Processor {
	return &Processor{store: store, maxBytes: maxBytes}
}

// Store returns the underlying store.
func (p *Processor) Store() Store {
	return p.store
}

// Upload decodes content, fits it within MaxDimension, re-encodes it as
// WebP and stores it under outfits/<owner>/<sha256>.webp.
func (p *Processor) Upload(ctx context.Context, ownerKey string, content []byte) (*Stored, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > p.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", p.maxBytes>>20))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	master := resizeToFit(decoded, MaxDimension, MaxDimension)
	encoded, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := ObjectKey(ownerKey, encoded)
	url, err := p.store.Save(ctx, key, webpMIME, encoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &Stored{Key: key, URL: url, Width: b.Dx(), Height: b.Dy(), Bytes: len(encoded)}, nil
}

// Delete removes a previously stored object.
func (p *Processor) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, key)
}

// ObjectKey derives the content-addressed key for an owner's image.
func ObjectKey(ownerKey string, encoded []byte) string {
	sum := sha256.Sum256(encoded)
	return ownerPrefix(ownerKey) + hex.EncodeToString(sum[:]) + ".webp"
}

// OwnedBy reports whether key names an object directly under ownerKey's
// upload prefix.
func OwnedBy(key, ownerKey string) bool {
	name, ok := strings.CutPrefix(key, ownerPrefix(ownerKey))
	return ok && name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}

func ownerPrefix(ownerKey string) string {
	owner := unsafeSegment.ReplaceAllString(ownerKey, "_")
	if owner == "" {
		owner = "_"
	}
	return "outfits/" + owner + "/"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}
