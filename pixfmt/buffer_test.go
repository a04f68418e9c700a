package pixfmt

import (
	"image"
	"image/color"
	"testing"
)

func TestPixelBufferValid(t *testing.T) {
	tests := []struct {
		name string
		buf  *PixelBuffer
		want bool
	}{
		{"nil", nil, false},
		{"zero width", &PixelBuffer{Format: FormatARGB8888, Height: 1, Pix: make([]byte, 4)}, false},
		{"zero height", &PixelBuffer{Format: FormatARGB8888, Width: 1, Pix: make([]byte, 4)}, false},
		{"packed 32", &PixelBuffer{Format: FormatARGB8888, Width: 2, Height: 2, Pix: make([]byte, 16)}, true},
		{"short 32", &PixelBuffer{Format: FormatARGB8888, Width: 2, Height: 2, Pix: make([]byte, 15)}, false},
		{"packed 16", &PixelBuffer{Format: FormatRGB565, Width: 3, Height: 1, Pix: make([]byte, 6)}, true},
		{"padded stride", &PixelBuffer{Format: FormatRGB565, Width: 3, Height: 2, Stride: 8, Pix: make([]byte, 14)}, true},
		{"stride too small", &PixelBuffer{Format: FormatRGB565, Width: 3, Height: 2, Stride: 4, Pix: make([]byte, 64)}, false},
		{"unsupported", &PixelBuffer{Format: FormatUnsupported, Width: 1, Height: 1, Pix: []byte{0}}, true},
		{"unsupported no memory", &PixelBuffer{Format: FormatUnsupported, Width: 1, Height: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.buf.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPixelBuffer(t *testing.T) {
	b := NewPixelBuffer(FormatRGB565, 5, 3)
	if b.Stride != 10 || len(b.Pix) != 30 {
		t.Errorf("NewPixelBuffer(RGB565, 5, 3) = stride %d, %d bytes; want 10, 30", b.Stride, len(b.Pix))
	}
	if !b.Valid() {
		t.Error("NewPixelBuffer() result is not valid")
	}
	if got := b.PixOffset(2, 1); got != 14 {
		t.Errorf("PixOffset(2, 1) = %d, want 14", got)
	}
}

func TestFromImageARGB8888(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	src.SetNRGBA(10, 10, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44})
	src.SetNRGBA(11, 10, color.NRGBA{R: 0xFF, G: 0x00, B: 0x80, A: 0xFF})

	buf := FromImage(src, FormatARGB8888)
	c := ARGB8888{}
	if got := c.Load(buf.Pix[0:]); got != 0x44112233 {
		t.Errorf("pixel 0 = 0x%08X, want 0x44112233", got)
	}
	if got := c.Load(buf.Pix[4:]); got != 0xFFFF0080 {
		t.Errorf("pixel 1 = 0x%08X, want 0xFFFF0080", got)
	}

	back := buf.Image()
	if got := back.NRGBAAt(0, 0); got != (color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}) {
		t.Errorf("Image().NRGBAAt(0, 0) = %v", got)
	}
}

func TestFromImageRGB565(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 0xFF, G: 0x84, B: 0x07, A: 0x10})

	buf := FromImage(src, FormatRGB565)
	want := uint32(31<<11 | 33<<5 | 0)
	if got := (RGB565{}).Load(buf.Pix); got != want {
		t.Errorf("pixel = 0x%04X, want 0x%04X", got, want)
	}

	got := buf.Image().NRGBAAt(0, 0)
	if got.R != 0xFF || got.G != uint8(Expand6(33)) || got.B != 0 || got.A != 0xFF {
		t.Errorf("Image().NRGBAAt(0, 0) = %v", got)
	}
}

func TestImageInvalid(t *testing.T) {
	var b *PixelBuffer
	if img := b.Image(); !img.Rect.Empty() {
		t.Errorf("nil.Image().Rect = %v, want empty", img.Rect)
	}
	u := &PixelBuffer{Width: 1, Height: 1, Pix: []byte{1}}
	if img := u.Image(); !img.Rect.Empty() {
		t.Errorf("unsupported.Image().Rect = %v, want empty", img.Rect)
	}
}

func TestFormatString(t *testing.T) {
	tests := map[Format]string{
		FormatARGB8888:    "ARGB8888",
		FormatRGB565:      "RGB565",
		FormatUnsupported: "unsupported",
	}
	for f, want := range tests {
		if got := f.String(); got != want {
			t.Errorf("Format(%d).String() = %q, want %q", int(f), got, want)
		}
	}
}
