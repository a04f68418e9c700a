// Package image4bit provides the 4-bit grayscale image format used to hand
// dithered frames to 16-level panels.
//
// A Gray4 intensity Y in [0, 15] corresponds to the dither lattice level
// Y*17, so a buffer dithered by package eink16 packs losslessly.
//
// Pixels are stored two per byte, left pixel in the high nibble:
//
//	Pixels: 0  1  2  3
//	Values: 5  10 3  12
//	Bytes:  0x5A     0x3C
//
// Rows with an odd width end with an unused low nibble.
//
// Example usage:
//
//	eink16.DitherImage(buf)
//	img := image4bit.Pack(buf)
//	dev.Draw(dev.Bounds(), img, image.Point{})
package image4bit
