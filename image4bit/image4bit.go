package image4bit

import (
	"image"
	"image/color"

	"github.com/flavioheleno/eink16/pixfmt"
)

// LevelStep is the 8-bit distance between two Gray4 intensities.
const LevelStep = 17

// Gray4 represents a 4-bit grayscale color (0-15 intensity levels).
// Only the lower 4 bits of Y are used.
type Gray4 struct {
	Y uint8
}

// RGBA implements color.Color. 0xF * 0x1111 = 0xFFFF.
func (c Gray4) RGBA() (r, g, b, a uint32) {
	y := uint32(c.Y&0x0F) * 0x1111
	return y, y, y, 0xFFFF
}

// Level returns the 8-bit gray level of c, one of 0, 17, ..., 255.
func (c Gray4) Level() int {
	return int(c.Y&0x0F) * LevelStep
}

// FromLevel returns the Gray4 nearest to the 8-bit gray level v.
// Values outside [0, 255] are clamped.
func FromLevel(v int) Gray4 {
	switch {
	case v <= 0:
		return Gray4{}
	case v >= 255:
		return Gray4{Y: 15}
	}
	return Gray4{Y: uint8((v + LevelStep/2) / LevelStep)}
}

func toGray4(c color.Color) color.Color {
	if g, ok := c.(Gray4); ok {
		return g
	}
	r, g, b, _ := c.RGBA()
	// Same fixed-point weights as the dither codecs, on 8-bit channels.
	y := (pixfmt.WeightR*(r>>8) + pixfmt.WeightG*(g>>8) + pixfmt.WeightB*(b>>8)) >> pixfmt.LumaShift
	return FromLevel(int(y))
}

// Gray4Model converts colors to Gray4.
var Gray4Model = color.ModelFunc(toGray4)

// HorizontalNibble is a 4-bit grayscale image with two pixels per byte.
type HorizontalNibble struct {
	Pix    []byte          // Pixel data (2 pixels per byte)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewHorizontalNibble creates a black image with bounds r.
func NewHorizontalNibble(r image.Rectangle) *HorizontalNibble {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &HorizontalNibble{Rect: r}
	}
	stride := (w + 1) / 2
	return &HorizontalNibble{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// Pack converts a dithered buffer into a nibble image anchored at (0, 0).
// Each pixel's luminance is mapped with FromLevel, so buffers that were not
// dithered are quantized without diffusion. Invalid or unsupported buffers
// yield an empty image.
func Pack(buf *pixfmt.PixelBuffer) *HorizontalNibble {
	if !buf.Valid() {
		return &HorizontalNibble{}
	}
	c, ok := pixfmt.CodecFor(buf.Format)
	if !ok {
		return &HorizontalNibble{}
	}
	img := NewHorizontalNibble(image.Rect(0, 0, buf.Width, buf.Height))
	bpp := c.BytesPerPixel()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			i := buf.PixOffset(x, y)
			img.SetGray4(x, y, FromLevel(c.Luminance(c.Load(buf.Pix[i:i+bpp]))))
		}
	}
	return img
}

// ColorModel returns the color model of the image.
func (p *HorizontalNibble) ColorModel() color.Model { return Gray4Model }

// Bounds returns the image bounds.
func (p *HorizontalNibble) Bounds() image.Rectangle { return p.Rect }

// At returns the color of the pixel at (x, y).
func (p *HorizontalNibble) At(x, y int) color.Color { return p.Gray4At(x, y) }

// Gray4At returns the pixel at (x, y), or black outside the bounds.
func (p *HorizontalNibble) Gray4At(x, y int) Gray4 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Gray4{}
	}
	offset, shift := p.pixOffset(x, y)
	return Gray4{Y: (p.Pix[offset] >> shift) & 0x0F}
}

// Set converts c with Gray4Model and stores it at (x, y).
func (p *HorizontalNibble) Set(x, y int, c color.Color) {
	p.SetGray4(x, y, Gray4Model.Convert(c).(Gray4))
}

// SetGray4 stores c at (x, y). Writes outside the bounds are ignored.
func (p *HorizontalNibble) SetGray4(x, y int, c Gray4) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset, shift := p.pixOffset(x, y)
	p.Pix[offset] = (p.Pix[offset] &^ (0x0F << shift)) | ((c.Y & 0x0F) << shift)
}

// pixOffset returns the byte offset and bit shift for (x, y). Even columns,
// counted from Rect.Min.X, use the high nibble.
func (p *HorizontalNibble) pixOffset(x, y int) (offset int, shift uint) {
	dx := x - p.Rect.Min.X
	offset = (y-p.Rect.Min.Y)*p.Stride + dx/2
	shift = uint(4 * (1 - (dx & 1)))
	return
}
