// Package vision handles frame decoding and face-region geometry between
// the HTTP surface and the analyzer backends.
package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	_ "golang.org/x/image/webp"

	"github.com/ami-labs/emotion-api/internal/provider"
)

// MaxFrameBytes bounds the decoded frame size (10MB)
const MaxFrameBytes = 10 * 1024 * 1024

// cropJPEGQuality is used when re-encoding a face region for the analyzer
const cropJPEGQuality = 90

// DecodeBase64 decodes a Base64-encoded frame. A data-URL prefix
// ("data:image/jpeg;base64,") from browser canvas captures is tolerated.
func DecodeBase64(frame string) ([]byte, error) {
	if idx := strings.Index(frame, ","); idx >= 0 && strings.HasPrefix(frame, "data:") {
		frame = frame[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(frame)
	if err != nil {
		return nil, fmt.Errorf("decode base64 frame: %w", err)
	}

	if len(data) > MaxFrameBytes {
		return nil, fmt.Errorf("frame too large: %d bytes", len(data))
	}

	return data, nil
}

// SniffFrame verifies the payload is a supported image format by content,
// not by any client-declared type.
func SniffFrame(data []byte) error {
	kind, err := filetype.Match(data)
	if err != nil {
		return fmt.Errorf("sniff frame: %w", err)
	}

	switch kind {
	case matchers.TypeJpeg, matchers.TypePng, matchers.TypeWebp:
		return nil
	default:
		return fmt.Errorf("unsupported image type %q", kind.MIME.Value)
	}
}

// DecodeImage decodes the frame into pixels
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// subImager is satisfied by every stdlib decoded image type
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// CropFace extracts the face region from the frame. The box is clamped to
// the frame bounds; a box that leaves no area returns the full frame.
func CropFace(img image.Image, box provider.BoundingBox) image.Image {
	bounds := img.Bounds()

	rect := image.Rect(
		int(box.X),
		int(box.Y),
		int(box.X+box.Width),
		int(box.Y+box.Height),
	).Intersect(bounds)

	if rect.Empty() {
		return img
	}

	si, ok := img.(subImager)
	if !ok {
		return img
	}

	return si.SubImage(rect)
}

// EncodeJPEG re-encodes a (cropped) image for submission to the analyzer
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: cropJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
