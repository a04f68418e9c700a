// Package panel drives an SSD1322-class 4-bit grayscale OLED over SPI and
// shows dithered pixel buffers on it.
//
// The controller has 480 columns of RAM; narrower panels are centered.
// Frames go out as image4bit.HorizontalNibble data and only the rectangle
// that changed since the previous frame is transferred.
package panel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/flavioheleno/eink16/image4bit"
	"github.com/flavioheleno/eink16/pixfmt"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	ramColumns = 480
	maxRows    = 128
)

// Controller commands.
const (
	cmdColumnAddr    = 0x15
	cmdWriteRAM      = 0x5C
	cmdRowAddr       = 0x75
	cmdRemap         = 0xA0
	cmdStartLine     = 0xA1
	cmdOffset        = 0xA2
	cmdNormal        = 0xA6
	cmdInverse       = 0xA7
	cmdExitPartial   = 0xA9
	cmdFunction      = 0xAB
	cmdDisplayOff    = 0xAE
	cmdDisplayOn     = 0xAF
	cmdPhase         = 0xB1
	cmdClock         = 0xB3
	cmdVSL           = 0xB4
	cmdPrecharge2    = 0xB6
	cmdDefaultGray   = 0xB9
	cmdPrechargeV    = 0xBB
	cmdVCOMH         = 0xBE
	cmdContrast      = 0xC1
	cmdMasterCurrent = 0xC7
	cmdMuxRatio      = 0xCA
	cmdEnhance       = 0xD1
	cmdLock          = 0xFD
)

var (
	// ErrHalted is returned by every drawing call after Halt.
	ErrHalted = errors.New("panel: halted")
	// ErrBufferSize is returned by Write for a frame of the wrong length.
	ErrBufferSize = errors.New("panel: invalid buffer size")
)

// Opts is the configuration for the panel.
type Opts struct {
	W int // Width (default: 256, must be even and ≤480)
	H int // Height (default: 64, must be ≤128)

	Rotated       bool // 180° rotation
	Sequential    bool // Sequential COM pin configuration
	SwapTopBottom bool // Swap top/bottom display halves

	// SPI clock. Default: 10MHz; the controller accepts up to 20MHz.
	Hz physic.Frequency

	// Optional hardware reset pin.
	RST gpio.PinIO
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.W%2 != 0 || o.W > ramColumns {
		return errors.New("panel: width must be even and between 2 and 480")
	}
	if o.H <= 0 || o.H > maxRows {
		return errors.New("panel: height must be between 1 and 128")
	}
	return nil
}

var _ display.Drawer = (*Dev)(nil)

// Dev is a handle to the panel.
type Dev struct {
	c   conn.Conn
	dc  gpio.PinOut
	rst gpio.PinIO

	rect         image.Rectangle
	columnOffset int

	shown  *image4bit.HorizontalNibble // What the panel RAM currently holds
	next   *image4bit.HorizontalNibble // Scratch frame for Draw
	halted bool
}

// NewSPI connects to the panel on p in SPI mode 0 and initializes it.
// dc is the Data/Command pin. opts can be nil for a 256x64 panel.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 256, H: 64}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	hz := opts.Hz
	if hz == 0 {
		hz = 10 * physic.MegaHertz
	}
	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("panel: failed to connect: %w", err)
	}
	d := newDev(c, dc, opts)
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

func newDev(c conn.Conn, dc gpio.PinOut, opts *Opts) *Dev {
	r := image.Rect(0, 0, opts.W, opts.H)
	return &Dev{
		c:            c,
		dc:           dc,
		rst:          opts.RST,
		rect:         r,
		columnOffset: (ramColumns - opts.W) / 2,
		shown:        image4bit.NewHorizontalNibble(r),
		next:         image4bit.NewHorizontalNibble(r),
	}
}

func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("panel: failed to pull RST low: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("panel: failed to pull RST high: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	remap1, remap2 := byte(0x14), byte(0x11)
	if opts.Rotated {
		remap1 = 0x06
	}
	if opts.Sequential {
		remap2 |= 0x01
	}
	if opts.SwapTopBottom {
		remap2 |= 0x02
	}

	cmds := []byte{
		cmdLock, 0x12,
		cmdDisplayOff,
		cmdClock, 0xF2,
		cmdMuxRatio, byte(opts.H - 1),
		cmdOffset, 0x00,
		cmdStartLine, 0x00,
		cmdRemap, remap1, remap2,
		cmdFunction, 0x01, // internal VDD
		cmdVSL, 0xA0, 0xFD,
		cmdContrast, 0xFF,
		cmdMasterCurrent, 0x0F,
		cmdDefaultGray,
		cmdPhase, 0xE2,
		cmdEnhance, 0x82, 0x20,
		cmdPrechargeV, 0x1F,
		cmdPrecharge2, 0x08,
		cmdVCOMH, 0x07,
		cmdNormal,
		cmdExitPartial,
	}
	if err := d.command(cmds...); err != nil {
		return fmt.Errorf("panel: init: %w", err)
	}
	// Blank RAM so it matches d.shown.
	if err := d.writeRect(d.rect, d.shown.Pix); err != nil {
		return fmt.Errorf("panel: clear: %w", err)
	}
	return d.command(cmdDisplayOn)
}

func (d *Dev) command(cmds ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx(cmds, nil)
}

func (d *Dev) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(b, nil)
}

// writeRect sends pixels for r, whose X bounds must be even.
// RAM columns address pairs of pixels.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	colStart := byte((r.Min.X + d.columnOffset) / 2)
	colEnd := byte((r.Max.X - 1 + d.columnOffset) / 2)
	if err := d.command(
		cmdColumnAddr, colStart, colEnd,
		cmdRowAddr, byte(r.Min.Y), byte(r.Max.Y-1),
		cmdWriteRAM,
	); err != nil {
		return err
	}
	return d.data(pixels)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model { return image4bit.Gray4Model }

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle { return d.rect }

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("panel.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// Write sends a full frame of nibble-packed pixels.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != len(d.shown.Pix) {
		return 0, ErrBufferSize
	}
	if err := d.writeRect(d.rect, pixels); err != nil {
		return 0, err
	}
	copy(d.shown.Pix, pixels)
	copy(d.next.Pix, pixels)
	return len(pixels), nil
}

// Draw renders src into dst and transfers the changed rectangle only.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(d.next, dst, src, sp, draw.Src)

	dirty := d.dirtyRect()
	if dirty.Empty() {
		return nil
	}
	if err := d.writeRect(dirty, d.extract(dirty)); err != nil {
		return err
	}
	copy(d.shown.Pix, d.next.Pix)
	return nil
}

// Show packs a dithered buffer and draws it at the panel origin.
// Parts of buf outside the panel are clipped.
func (d *Dev) Show(buf *pixfmt.PixelBuffer) error {
	img := image4bit.Pack(buf)
	if img.Rect.Empty() {
		return fmt.Errorf("panel: cannot show %v buffer", bufDesc(buf))
	}
	return d.Draw(d.rect, img, image.Point{})
}

func bufDesc(buf *pixfmt.PixelBuffer) string {
	if buf == nil {
		return "nil"
	}
	return fmt.Sprintf("%dx%d %v", buf.Width, buf.Height, buf.Format)
}

// dirtyRect returns the smallest byte-aligned rectangle where next differs
// from shown, or an empty rectangle.
func (d *Dev) dirtyRect() image.Rectangle {
	stride := d.shown.Stride
	minB, maxB := stride, -1
	minY, maxY := d.rect.Dy(), -1
	for y := 0; y < d.rect.Dy(); y++ {
		a := d.shown.Pix[y*stride : (y+1)*stride]
		b := d.next.Pix[y*stride : (y+1)*stride]
		if bytes.Equal(a, b) {
			continue
		}
		minY = min(minY, y)
		maxY = y
		for i := range a {
			if a[i] != b[i] {
				minB = min(minB, i)
				maxB = max(maxB, i)
			}
		}
	}
	if maxY < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minB*2, minY, (maxB+1)*2, maxY+1)
}

// extract copies the nibble bytes of r out of next.
func (d *Dev) extract(r image.Rectangle) []byte {
	stride := d.next.Stride
	w := r.Dx() / 2
	out := make([]byte, 0, w*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := y*stride + r.Min.X/2
		out = append(out, d.next.Pix[start:start+w]...)
	}
	return out
}

// SetContrast sets the segment output current (0-255).
func (d *Dev) SetContrast(level byte) error {
	if d.halted {
		return ErrHalted
	}
	return d.command(cmdContrast, level)
}

// Invert swaps black and white in hardware.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return ErrHalted
	}
	if invert {
		return d.command(cmdInverse)
	}
	return d.command(cmdNormal)
}

// Halt turns the display off. The Dev is unusable afterwards.
func (d *Dev) Halt() error {
	d.halted = true
	return d.command(cmdDisplayOff)
}
