// Package eink16 dithers packed pixel buffers down to 16 evenly spaced gray
// levels for low bit depth displays such as e-ink and 4-bit OLED panels.
//
// The engine runs a single raster-order Floyd-Steinberg pass in place,
// keeping only two rows of accumulated error. Luminance extraction and
// repacking are delegated to a pixfmt.Codec, so the same pass serves both
// supported layouts:
//
//	ARGB8888  alpha preserved, R = G = B = gray level
//	RGB565    channels truncated to 5/6/5 bits
//
// # Basic Usage
//
// Dither a buffer the host has already locked:
//
//	buf := &pixfmt.PixelBuffer{
//		Format: pixfmt.FormatARGB8888,
//		Width:  w,
//		Height: h,
//		Pix:    locked, // borrowed, w*h*4 bytes
//	}
//	eink16.DitherImage(buf)
//
// Any other format tag is silently skipped; callers are expected to convert
// such bitmaps beforehand.
//
// # Host Handles
//
// When the host exposes a lock/unlock pair, DitherLocked holds the lock for
// the whole pass:
//
//	if err := eink16.DitherLocked(bitmap); err != nil {
//		log.Printf("dither skipped: %v", err)
//	}
//
// A Processor adds the caller-side policy used by image decoding hooks:
// read-only buffers and small images (icons) are left alone.
//
// # Gray Levels
//
// Output luminance is always one of 0, 17, 34, ..., 255, which maps directly
// to a 4-bit intensity (level / 17). See package image4bit to pack dithered
// buffers for a panel, and package panel to drive an SSD1322 over SPI.
package eink16
