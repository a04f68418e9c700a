package main

import (
	"strings"

	"github.com/flavioheleno/eink16/image4bit"
)

// ramp maps Gray4 intensities to characters, darkest first.
const ramp = " .,:;-~=+*o%#&@M"

// renderPreview draws img as text, cols characters wide. Terminal cells are
// about twice as tall as wide, so every line covers two pixel rows per column.
func renderPreview(img *image4bit.HorizontalNibble, cols int) []string {
	r := img.Bounds()
	if r.Empty() || cols <= 0 {
		return nil
	}
	cols = min(cols, r.Dx())
	rows := max(1, r.Dy()*cols/r.Dx()/2)

	lines := make([]string, 0, rows)
	var sb strings.Builder
	for j := 0; j < rows; j++ {
		sb.Reset()
		y := r.Min.Y + j*r.Dy()/rows
		for i := 0; i < cols; i++ {
			x := r.Min.X + i*r.Dx()/cols
			sb.WriteByte(ramp[img.Gray4At(x, y).Y&0x0F])
		}
		lines = append(lines, sb.String())
	}
	return lines
}
