// Package framefile stores packed 4-bit frames on disk so a dithered frame
// can be replayed to a panel without dithering it again.
//
// A file is a 12-byte big-endian header followed by a single zstd frame
// holding the image4bit nibble data, row by row:
//
//	offset size field
//	0      4    magic "E16F"
//	4      2    version (1)
//	6      2    width in pixels
//	8      2    height in pixels
//	10     2    reserved, zero
package framefile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/flavioheleno/eink16/image4bit"
	"github.com/klauspost/compress/zstd"
)

const (
	magic      = "E16F"
	version    = 1
	headerSize = 12
	maxSide    = 1<<16 - 1
)

// Errors returned by Write and Read.
var (
	ErrMagic   = errors.New("framefile: not a frame file")
	ErrVersion = errors.New("framefile: unsupported version")
	ErrSize    = errors.New("framefile: invalid frame size")
	ErrPayload = errors.New("framefile: payload does not match header")
)

type header struct {
	Magic    [4]byte
	Version  uint16
	Width    uint16
	Height   uint16
	Reserved uint16
}

// Write encodes img to w. The image is re-anchored at (0, 0).
func Write(w io.Writer, img *image4bit.HorizontalNibble) error {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	if width <= 0 || height <= 0 || width > maxSide || height > maxSide {
		return ErrSize
	}
	if len(img.Pix) < img.Stride*height || img.Stride != (width+1)/2 {
		return ErrSize
	}

	h := header{Version: version, Width: uint16(width), Height: uint16(height)}
	copy(h.Magic[:], magic)
	if err := binary.Write(w, binary.BigEndian, &h); err != nil {
		return fmt.Errorf("framefile: header: %w", err)
	}

	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return fmt.Errorf("framefile: zstd encode: %w", err)
	}
	if _, err := enc.Write(img.Pix[:img.Stride*height]); err != nil {
		enc.Close()
		return fmt.Errorf("framefile: zstd encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("framefile: zstd encode: %w", err)
	}
	return nil
}

// Read decodes a frame written by Write.
func Read(r io.Reader) (*image4bit.HorizontalNibble, error) {
	br := bufio.NewReader(r)
	var h header
	if err := binary.Read(br, binary.BigEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrMagic
		}
		return nil, fmt.Errorf("framefile: header: %w", err)
	}
	if string(h.Magic[:]) != magic {
		return nil, ErrMagic
	}
	if h.Version != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.Width == 0 || h.Height == 0 {
		return nil, ErrSize
	}

	dec, err := zstd.NewReader(br,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, fmt.Errorf("framefile: zstd decode: %w", err)
	}
	defer dec.Close()

	// Pix grows with the decoded payload; the header only bounds it.
	stride := (int(h.Width) + 1) / 2
	want := stride * int(h.Height)
	pix, err := io.ReadAll(io.LimitReader(dec, int64(want)+1))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPayload
		}
		return nil, fmt.Errorf("framefile: zstd decode: %w", err)
	}
	if len(pix) != want {
		return nil, ErrPayload
	}
	img := &image4bit.HorizontalNibble{
		Pix:    pix,
		Stride: stride,
		Rect:   image.Rect(0, 0, int(h.Width), int(h.Height)),
	}
	return img, nil
}
