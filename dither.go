package eink16

import "github.com/flavioheleno/eink16/pixfmt"

const (
	// Levels is the number of gray levels in the output lattice.
	Levels = 16
	// Step is the distance between two adjacent gray levels.
	Step = 255 / (Levels - 1)
)

// Floyd-Steinberg weights, in sixteenths.
const (
	weightRight      = 7
	weightBelowLeft  = 3
	weightBelow      = 5
	weightBelowRight = 1
	weightDenom      = 16
)

// Quantize rounds gray to the nearest lattice level, half away from zero,
// and clamps the result to [0, 255].
func Quantize(gray int) int {
	if gray <= 0 {
		return 0
	}
	level := (gray + Step/2) / Step * Step
	if level > 255 {
		level = 255
	}
	return level
}

// Dither runs the error diffusion pass over buf using c, in place.
// Invalid buffers are left untouched.
//
// Error is carried in two rows: cur holds what is still owed to the cells
// right of the cursor, next collects what is owed to the row below. Shares
// that fall outside the image are dropped.
func Dither(buf *pixfmt.PixelBuffer, c pixfmt.Codec) {
	if c == nil || !buf.Valid() || buf.Format.BytesPerPixel() != c.BytesPerPixel() {
		return
	}

	width, height := buf.Width, buf.Height
	bpp := c.BytesPerPixel()
	stride := buf.RowStride()

	cur := make([]int, width)
	next := make([]int, width)

	for y := 0; y < height; y++ {
		row := buf.Pix[y*stride:]
		last := y+1 == height
		for x := 0; x < width; x++ {
			px := row[x*bpp : x*bpp+bpp]
			orig := c.Load(px)

			gray := c.Luminance(orig) + cur[x]
			level := Quantize(gray)
			qerr := gray - level

			if x+1 < width {
				cur[x+1] += qerr * weightRight / weightDenom
			}
			if !last {
				if x > 0 {
					next[x-1] += qerr * weightBelowLeft / weightDenom
				}
				next[x] += qerr * weightBelow / weightDenom
				if x+1 < width {
					next[x+1] += qerr * weightBelowRight / weightDenom
				}
			}

			c.Store(px, c.Repack(orig, level))
		}

		cur, next = next, cur
		clear(next)
	}
}
