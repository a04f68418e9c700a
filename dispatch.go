package eink16

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/flavioheleno/eink16/pixfmt"
)

// ErrNoHandle is returned by DitherLocked for a nil handle.
var ErrNoHandle = errors.New("eink16: nil pixel handle")

// DitherImage selects the codec for buf's declared format and dithers it in
// place. Unsupported formats and invalid buffers are silent no-ops; it
// reports whether the buffer was processed.
func DitherImage(buf *pixfmt.PixelBuffer) bool {
	if !buf.Valid() {
		return false
	}
	c, ok := pixfmt.CodecFor(buf.Format)
	if !ok {
		return false
	}
	Dither(buf, c)
	return true
}

// Locker is a host bitmap whose pixel memory must be locked for exclusive
// write access. The buffer returned by LockPixels is valid until
// UnlockPixels is called.
type Locker interface {
	LockPixels() (*pixfmt.PixelBuffer, error)
	UnlockPixels() error
}

// DitherLocked locks l, dithers its pixels and unlocks it again.
// If locking fails nothing is touched and the error is returned.
func DitherLocked(l Locker) error {
	if l == nil {
		return ErrNoHandle
	}
	buf, err := l.LockPixels()
	if err != nil {
		return fmt.Errorf("eink16: failed to lock pixels: %w", err)
	}
	DitherImage(buf)
	if err := l.UnlockPixels(); err != nil {
		return fmt.Errorf("eink16: failed to unlock pixels: %w", err)
	}
	return nil
}

// Default minimum dimensions below which a Processor leaves buffers alone.
const (
	DefaultMinWidth  = 64
	DefaultMinHeight = 64
)

// Processor applies the caller-side policy in front of DitherImage.
// The zero value uses the default minimum size and does not log.
type Processor struct {
	MinWidth  int // Default: DefaultMinWidth
	MinHeight int // Default: DefaultMinHeight

	// Log receives one line per skipped buffer. Optional.
	Log *log.Logger
}

// Process dithers buf unless it is missing, read-only, too small or of an
// unsupported format. It reports whether the buffer was dithered.
func (p *Processor) Process(buf *pixfmt.PixelBuffer) bool {
	if buf == nil {
		return false
	}
	if buf.ReadOnly {
		p.logger().Printf("eink16: skipping read-only %dx%d buffer", buf.Width, buf.Height)
		return false
	}
	minW, minH := p.MinWidth, p.MinHeight
	if minW == 0 {
		minW = DefaultMinWidth
	}
	if minH == 0 {
		minH = DefaultMinHeight
	}
	if buf.Width < minW || buf.Height < minH {
		return false
	}
	if !DitherImage(buf) {
		p.logger().Printf("eink16: skipping %dx%d buffer in format %v", buf.Width, buf.Height, buf.Format)
		return false
	}
	return true
}

var discard = log.New(io.Discard, "", 0)

func (p *Processor) logger() *log.Logger {
	if p.Log == nil {
		return discard
	}
	return p.Log
}
