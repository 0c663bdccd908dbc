package qrcode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

func encodeQR(t *testing.T, content string) []byte {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, 256, 256, nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, matrix); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(10, 10, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDecoder_Decode(t *testing.T) {
	d := NewDecoder(true)

	t.Run("reads payload", func(t *testing.T) {
		want := "https://registry.example/verify/JH-RU-2021-004567"
		got, found, err := d.Decode(encodeQR(t, want))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if !found {
			t.Fatal("Decode() found = false, want true")
		}
		if got != want {
			t.Errorf("Decode() = %q, want %q", got, want)
		}
	})

	t.Run("image without code is not an error", func(t *testing.T) {
		got, found, err := d.Decode(blankPNG(t))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if found {
			t.Errorf("Decode() found = true with payload %q, want false", got)
		}
	})

	t.Run("corrupt image is an error", func(t *testing.T) {
		_, found, err := d.Decode([]byte("definitely not an image"))
		if err == nil {
			t.Fatal("Decode() expected error for corrupt image")
		}
		if found {
			t.Error("Decode() found = true for corrupt image")
		}
	})

	t.Run("empty input is an error", func(t *testing.T) {
		if _, _, err := d.Decode(nil); err == nil {
			t.Fatal("Decode() expected error for empty input")
		}
	})
}
