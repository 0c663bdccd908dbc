// Package qrcode extracts QR payloads from certificate images.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder reads at most one QR code from an image. When an image carries
// several codes, the one located by the detector's finder-pattern search is
// returned; the others are ignored.
type Decoder struct {
	tryHarder bool
}

// NewDecoder creates a Decoder. tryHarder trades speed for accuracy on
// photographed or skewed scans.
func NewDecoder(tryHarder bool) *Decoder {
	return &Decoder{tryHarder: tryHarder}
}

// Decode returns the payload of the QR code in data. found is false when the
// image has no readable code, which is not an error. An error means the bytes
// could not be decoded as an image at all.
func (d *Decoder) Decode(data []byte) (payload string, found bool, err error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("decoding image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false, fmt.Errorf("binarizing image: %w", err)
	}

	var hints map[gozxing.DecodeHintType]interface{}
	if d.tryHarder {
		hints = map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		}
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		if isAbsent(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading QR code: %w", err)
	}

	text := result.GetText()
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// isAbsent reports whether err means "no usable code" rather than a fault.
// A damaged code that fails checksum or format checks counts as absent.
func isAbsent(err error) bool {
	var notFound gozxing.NotFoundException
	var checksum gozxing.ChecksumException
	var format gozxing.FormatException
	return errors.As(err, &notFound) || errors.As(err, &checksum) || errors.As(err, &format)
}
