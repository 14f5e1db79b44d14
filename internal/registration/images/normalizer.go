// Package images turns uploaded image attachments into compact WebP files
// bounded to a per-role box, and generates the collision-resistant names the
// content store files everything under.
package images

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Role selects the bounding box and encode quality for a normalized image.
type Role string

const (
	RoleProfile Role = "profile"
	RoleReceipt Role = "receipt"
)

const (
	profileMaxDim = 800
	receiptMaxDim = 1200

	profileQuality = 80
	receiptQuality = 85
)

func (r Role) maxDim() int {
	if r == RoleProfile {
		return profileMaxDim
	}
	return receiptMaxDim
}

func (r Role) quality() float32 {
	if r == RoleProfile {
		return profileQuality
	}
	return receiptQuality
}

// Normalize decodes raw image bytes, downscales them to fit the role's
// bounding box (never upscaling), and re-encodes to lossy WebP.
func Normalize(data []byte, role Role) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = resizeToFit(img, role.maxDim(), role.maxDim())

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: role.quality()}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeToFit scales src to fit within maxW×maxH keeping aspect ratio.
// Images already inside the box are returned untouched.
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// CatmullRom keeps photos sharp after a large downscale.
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// GeneratedName builds the stored file name for an attachment:
// <role>-<sanitized national id>-<uuidv7>[-<position>].<ext>. The UUIDv7
// token is time-ordered, so directory listings stay roughly chronological
// without relying on clock+randomness collision avoidance. Position is the
// 1-based receipt index and is omitted for profile images.
func GeneratedName(role Role, nationalID string, position int, ext string) string {
	token, err := uuid.NewV7()
	if err != nil {
		token = uuid.New()
	}
	if role == RoleReceipt {
		return fmt.Sprintf("%s-%s-%s-%d.%s", role, sanitize(nationalID), token, position, ext)
	}
	return fmt.Sprintf("%s-%s-%s.%s", role, sanitize(nationalID), token, ext)
}

// sanitize maps anything outside [A-Za-z0-9] to underscore so the identity
// code can never introduce path separators or odd bytes into file names.
func sanitize(s string) string {
	out := []byte(s)
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
