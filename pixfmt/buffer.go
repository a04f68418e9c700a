package pixfmt

import (
	"image"
	"image/color"
)

// Format is the pixel layout tag declared by the host.
type Format int

const (
	FormatUnsupported Format = iota // Any layout the engine does not handle
	FormatARGB8888                  // 32 bits per pixel, 8-bit alpha and R/G/B
	FormatRGB565                    // 16 bits per pixel, 5-bit R, 6-bit G, 5-bit B
)

// String returns the layout name of f.
func (f Format) String() string {
	switch f {
	case FormatARGB8888:
		return "ARGB8888"
	case FormatRGB565:
		return "RGB565"
	}
	return "unsupported"
}

// BytesPerPixel returns the element size of f, or 0 if f is unsupported.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatARGB8888:
		return 4
	case FormatRGB565:
		return 2
	}
	return 0
}

// PixelBuffer is a borrowed, mutable view over locked pixel memory.
// It must not be retained past the call it was passed to.
type PixelBuffer struct {
	Format Format
	Width  int
	Height int
	Stride int    // Bytes per row; 0 means Width*Format.BytesPerPixel()
	Pix    []byte // Pixel data, row-major

	// ReadOnly marks buffers the host could not make writable.
	ReadOnly bool
}

// NewPixelBuffer allocates a zeroed, tightly packed buffer.
func NewPixelBuffer(f Format, w, h int) *PixelBuffer {
	bpp := f.BytesPerPixel()
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &PixelBuffer{
		Format: f,
		Width:  w,
		Height: h,
		Stride: w * bpp,
		Pix:    make([]byte, w*h*bpp),
	}
}

// RowStride returns the effective number of bytes per row.
func (b *PixelBuffer) RowStride() int {
	if b.Stride != 0 {
		return b.Stride
	}
	return b.Width * b.Format.BytesPerPixel()
}

// Valid reports whether b can be processed: non-nil, non-empty, a known
// element size, and enough backing memory for every row.
// Unsupported formats are valid buffers; dispatch skips them.
func (b *PixelBuffer) Valid() bool {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return false
	}
	bpp := b.Format.BytesPerPixel()
	if bpp == 0 {
		return b.Pix != nil
	}
	stride := b.RowStride()
	if stride < b.Width*bpp {
		return false
	}
	return len(b.Pix) >= (b.Height-1)*stride+b.Width*bpp
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (b *PixelBuffer) PixOffset(x, y int) int {
	return y*b.RowStride() + x*b.Format.BytesPerPixel()
}

// FromImage converts img into a new buffer of format f. Straight (not
// premultiplied) alpha is stored for ARGB8888; RGB565 drops alpha and
// truncates each channel.
func FromImage(img image.Image, f Format) *PixelBuffer {
	r := img.Bounds()
	buf := NewPixelBuffer(f, r.Dx(), r.Dy())
	c, ok := CodecFor(f)
	if !ok {
		return buf
	}
	bpp := c.BytesPerPixel()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			n := color.NRGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.NRGBA)
			var p uint32
			switch f {
			case FormatARGB8888:
				p = uint32(n.A)<<24 | uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B)
			case FormatRGB565:
				p = uint32(n.R>>3)<<11 | uint32(n.G>>2)<<5 | uint32(n.B>>3)
			}
			i := buf.PixOffset(x, y)
			c.Store(buf.Pix[i:i+bpp], p)
		}
	}
	return buf
}

// Image copies b into a new NRGBA image. It returns an empty image if b is
// invalid or of an unsupported format.
func (b *PixelBuffer) Image() *image.NRGBA {
	if !b.Valid() {
		return image.NewNRGBA(image.Rectangle{})
	}
	c, ok := CodecFor(b.Format)
	if !ok {
		return image.NewNRGBA(image.Rectangle{})
	}
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	bpp := c.BytesPerPixel()
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			i := b.PixOffset(x, y)
			img.SetNRGBA(x, y, toNRGBA(b.Format, c.Load(b.Pix[i:i+bpp])))
		}
	}
	return img
}

func toNRGBA(f Format, p uint32) color.NRGBA {
	if f == FormatRGB565 {
		return color.NRGBA{
			R: uint8(Expand5((p >> 11) & 0x1F)),
			G: uint8(Expand6((p >> 5) & 0x3F)),
			B: uint8(Expand5(p & 0x1F)),
			A: 0xFF,
		}
	}
	return color.NRGBA{R: uint8(p >> 16), G: uint8(p >> 8), B: uint8(p), A: uint8(p >> 24)}
}
