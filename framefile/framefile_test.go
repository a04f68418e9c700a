package framefile

import (
	"bytes"
	"errors"
	"image"
	"runtime"
	"testing"

	"github.com/flavioheleno/eink16/image4bit"
	"github.com/klauspost/compress/zstd"
)

func gradient(w, h int) *image4bit.HorizontalNibble {
	img := image4bit.NewHorizontalNibble(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray4(x, y, image4bit.Gray4{Y: uint8((x + y) % 16)})
		}
	}
	return img
}

func TestWriteRead(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"256x64", 256, 64},
		{"odd width", 5, 3},
		{"single pixel", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := gradient(tt.w, tt.h)
			var buf bytes.Buffer
			if err := Write(&buf, img); err != nil {
				t.Fatalf("Write() = %v", err)
			}
			if got := buf.Bytes()[:4]; string(got) != "E16F" {
				t.Errorf("magic = %q, want E16F", got)
			}

			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read() = %v", err)
			}
			if got.Rect != img.Rect || !bytes.Equal(got.Pix, img.Pix) {
				t.Errorf("Read() = %v % X, want %v % X", got.Rect, got.Pix, img.Rect, img.Pix)
			}
		})
	}
}

func TestWriteCompresses(t *testing.T) {
	img := image4bit.NewHorizontalNibble(image.Rect(0, 0, 256, 128))
	var buf bytes.Buffer
	if err := Write(&buf, img); err != nil {
		t.Fatal(err)
	}
	if buf.Len() >= len(img.Pix)/4 {
		t.Errorf("blank frame encoded to %d bytes, want well under %d", buf.Len(), len(img.Pix))
	}
}

func TestWriteOffsetRect(t *testing.T) {
	img := image4bit.NewHorizontalNibble(image.Rect(10, 20, 14, 22))
	img.SetGray4(10, 20, image4bit.Gray4{Y: 9})

	var buf bytes.Buffer
	if err := Write(&buf, img); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rect != image.Rect(0, 0, 4, 2) || got.Gray4At(0, 0).Y != 9 {
		t.Errorf("Read() = %v with (0,0) = %d, want (0,0)-(4,2) with 9", got.Rect, got.Gray4At(0, 0).Y)
	}
}

func TestWriteInvalid(t *testing.T) {
	tests := []struct {
		name string
		img  *image4bit.HorizontalNibble
	}{
		{"empty", &image4bit.HorizontalNibble{}},
		{"short pix", &image4bit.HorizontalNibble{Pix: make([]byte, 1), Stride: 2, Rect: image.Rect(0, 0, 4, 2)}},
		{"bad stride", &image4bit.HorizontalNibble{Pix: make([]byte, 16), Stride: 4, Rect: image.Rect(0, 0, 4, 2)}},
		{"too wide", &image4bit.HorizontalNibble{Stride: 1 << 15, Rect: image.Rect(0, 0, 1<<16, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Write(&bytes.Buffer{}, tt.img); !errors.Is(err, ErrSize) {
				t.Errorf("Write() = %v, want ErrSize", err)
			}
		})
	}
}

func encoded(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, gradient(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadErrors(t *testing.T) {
	good := encoded(t, 4, 2)

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'

	badVersion := append([]byte(nil), good...)
	badVersion[5] = 9

	// Header claims 8x2 but the payload holds a 4x2 frame.
	wrongSize := append([]byte(nil), good...)
	wrongSize[7] = 8

	zeroSize := append([]byte(nil), good...)
	zeroSize[9] = 0

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrMagic},
		{"short header", good[:6], ErrMagic},
		{"bad magic", badMagic, ErrMagic},
		{"bad version", badVersion, ErrVersion},
		{"zero height", zeroSize, ErrSize},
		{"payload too short", wrongSize, ErrPayload},
		{"payload too long", append(encoded(t, 4, 4)[:headerSize:headerSize], encoded(t, 4, 8)[headerSize:]...), ErrPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Read() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadHugeHeaderEmptyPayload(t *testing.T) {
	// 65535x65535 would need 2 GiB of nibbles; the payload is empty.
	data := []byte{'E', '1', '6', 'F', 0x00, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Read(bytes.NewReader(data))
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrPayload) {
		t.Errorf("Read() = %v, want ErrPayload", err)
	}
	if alloc := after.TotalAlloc - before.TotalAlloc; alloc > 64<<20 {
		t.Errorf("Read() allocated %d MiB for an empty payload", alloc>>20)
	}
}

func TestReadTrailingGarbage(t *testing.T) {
	data := append(encoded(t, 4, 2), 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08)

	_, err := Read(bytes.NewReader(data))
	if !errors.Is(err, zstd.ErrMagicMismatch) {
		t.Errorf("Read() = %v, want wrapped zstd.ErrMagicMismatch", err)
	}
}
