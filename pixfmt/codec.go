package pixfmt

import "encoding/binary"

// Fixed-point luma weights and the shift that normalizes their sum (256).
const (
	WeightR   = 77
	WeightG   = 150
	WeightB   = 29
	LumaShift = 8
)

// Codec extracts luminance from a packed pixel and repacks a gray level into
// it. Pixels are carried as uint32 regardless of their stored width.
type Codec interface {
	// BytesPerPixel is the stored element size.
	BytesPerPixel() int
	// Load reads one pixel from b.
	Load(b []byte) uint32
	// Store writes one pixel to b.
	Store(b []byte, p uint32)
	// Luminance returns the luma of p in [0, 255].
	Luminance(p uint32) int
	// Repack returns a gray pixel of luminance y based on the original p.
	Repack(p uint32, y int) uint32
}

// luma combines 8-bit channels with the fixed-point weights.
func luma(r, g, b uint32) int {
	return int((WeightR*r + WeightG*g + WeightB*b) >> LumaShift)
}

// ARGB8888 is the 32 bits per pixel codec. Alpha is kept as is; R, G and B
// are all set to the new luminance.
type ARGB8888 struct{}

// BytesPerPixel returns 4.
func (ARGB8888) BytesPerPixel() int { return 4 }

// Load reads a little-endian uint32 pixel.
func (ARGB8888) Load(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// Store writes p as a little-endian uint32.
func (ARGB8888) Store(b []byte, p uint32) { binary.LittleEndian.PutUint32(b, p) }

// Luminance returns the weighted luma of the R, G and B bytes of p.
func (ARGB8888) Luminance(p uint32) int {
	return luma((p>>16)&0xFF, (p>>8)&0xFF, p&0xFF)
}

// Repack keeps the alpha byte of p and sets R, G and B to y.
func (ARGB8888) Repack(p uint32, y int) uint32 {
	v := uint32(y) & 0xFF
	return p&0xFF000000 | v<<16 | v<<8 | v
}

// RGB565 is the 16 bits per pixel codec. Channels are expanded to 8 bits by
// bit replication before weighting, and truncated back on repack.
type RGB565 struct{}

// BytesPerPixel returns 2.
func (RGB565) BytesPerPixel() int { return 2 }

// Load reads a little-endian uint16 pixel.
func (RGB565) Load(b []byte) uint32 { return uint32(binary.LittleEndian.Uint16(b)) }

// Store writes the low 16 bits of p, little-endian.
func (RGB565) Store(b []byte, p uint32) { binary.LittleEndian.PutUint16(b, uint16(p)) }

// Luminance expands the 5/6/5 channels of p to 8 bits and returns their weighted luma.
func (RGB565) Luminance(p uint32) int {
	r5 := (p >> 11) & 0x1F
	g6 := (p >> 5) & 0x3F
	b5 := p & 0x1F
	return luma(Expand5(r5), Expand6(g6), Expand5(b5))
}

// Repack ignores the original pixel: RGB565 carries nothing but color.
func (RGB565) Repack(_ uint32, y int) uint32 {
	v := uint32(y) & 0xFF
	return (v>>3)<<11 | (v>>2)<<5 | v>>3
}

// Expand5 widens a 5-bit channel to 8 bits: (v << 3) | (v >> 2).
func Expand5(v uint32) uint32 { return v<<3 | v>>2 }

// Expand6 widens a 6-bit channel to 8 bits: (v << 2) | (v >> 4).
func Expand6(v uint32) uint32 { return v<<2 | v>>4 }

// CodecFor returns the codec for f, or nil and false for unsupported formats.
func CodecFor(f Format) (Codec, bool) {
	switch f {
	case FormatARGB8888:
		return ARGB8888{}, true
	case FormatRGB565:
		return RGB565{}, true
	}
	return nil, false
}
