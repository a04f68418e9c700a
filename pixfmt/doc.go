// Package pixfmt describes the packed pixel buffers handed over by the host
// and the codecs that read luminance from, and write gray levels back into,
// their pixels.
//
// Two layouts are supported:
//
//	ARGB8888: 4 bytes per pixel, uint32 little-endian, A<<24 | R<<16 | G<<8 | B
//	RGB565:   2 bytes per pixel, uint16 little-endian, R<<11 | G<<5 | B
//
// Luminance is computed with the 8-bit fixed-point luma weights
//
//	Y = (77*R + 150*G + 29*B) >> 8
//
// which must not be replaced with a floating point formula: dithered output
// is expected to match bit for bit.
//
// A PixelBuffer handed over by a host does not own its memory. It is a view
// over pixels the caller has locked for exclusive write access, valid only
// for the duration of the call that receives it. NewPixelBuffer and
// FromImage allocate their own memory for callers that start from an
// image.Image.
package pixfmt
