package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode normalized output: %v", err)
	}
	if format != "webp" {
		t.Fatalf("expected webp output, got %s", format)
	}
	return cfg.Width, cfg.Height
}

func TestNormalizeProfileBoundsLargeImage(t *testing.T) {
	out, err := Normalize(makeJPEG(t, 2000, 1000), RoleProfile)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	w, h := decodeDims(t, out)
	if w > 800 || h > 800 {
		t.Fatalf("profile image exceeds 800x800: %dx%d", w, h)
	}
	// Aspect ratio 2:1 must survive the downscale.
	if w != 800 || h != 400 {
		t.Fatalf("expected 800x400, got %dx%d", w, h)
	}
}

func TestNormalizeReceiptBound(t *testing.T) {
	out, err := Normalize(makePNG(t, 3000, 3000), RoleReceipt)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	w, h := decodeDims(t, out)
	if w != 1200 || h != 1200 {
		t.Fatalf("expected 1200x1200, got %dx%d", w, h)
	}
}

func TestNormalizeNeverUpscales(t *testing.T) {
	out, err := Normalize(makeJPEG(t, 300, 200), RoleProfile)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	w, h := decodeDims(t, out)
	if w != 300 || h != 200 {
		t.Fatalf("small image was rescaled to %dx%d", w, h)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("not an image at all"), RoleProfile); err == nil {
		t.Fatal("expected decode error for garbage input")
	}
}

func TestGeneratedName(t *testing.T) {
	profile := GeneratedName(RoleProfile, "1234567890", 0, "webp")
	if !strings.HasPrefix(profile, "profile-1234567890-") || !strings.HasSuffix(profile, ".webp") {
		t.Fatalf("unexpected profile name %q", profile)
	}

	receipt := GeneratedName(RoleReceipt, "1234567890", 2, "pdf")
	if !strings.HasPrefix(receipt, "receipt-1234567890-") || !strings.HasSuffix(receipt, "-2.pdf") {
		t.Fatalf("unexpected receipt name %q", receipt)
	}

	if GeneratedName(RoleProfile, "x", 0, "webp") == GeneratedName(RoleProfile, "x", 0, "webp") {
		t.Fatal("generated names must not collide")
	}
}

func TestGeneratedNameSanitizesIdentity(t *testing.T) {
	name := GeneratedName(RoleProfile, "../12 34$", 0, "webp")
	if strings.ContainsAny(name, "/\\ $") {
		t.Fatalf("identity was not sanitized: %q", name)
	}
	if !strings.HasPrefix(name, "profile-___12_34_-") {
		t.Fatalf("unexpected sanitized prefix: %q", name)
	}
}
