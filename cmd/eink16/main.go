// Command eink16 dithers an image to 16 gray levels and sends the result to
// a PNG, a frame file, the terminal and/or an SSD1322 panel.
//
// Examples:
//
//	eink16 -o out.png photo.jpg
//	eink16 -format rgb565 -width 256 -height 64 -frame photo.e16f photo.jpg
//	eink16 -panel -dc GPIO25 photo.jpg
//	eink16 -replay photo.e16f -panel
//
// Panel output requires periph.io host drivers and an SPI bus:
//
//	Display    Raspberry Pi
//	SCL/CLK    GPIO11 (SPI0 CLK)
//	SDA/MOSI   GPIO10 (SPI0 MOSI)
//	DC         GPIO25 (configurable)
//	CS         GPIO8 (SPI0 CE0) or GND
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/disintegration/imaging"
	"github.com/flavioheleno/eink16"
	"github.com/flavioheleno/eink16/framefile"
	"github.com/flavioheleno/eink16/image4bit"
	"github.com/flavioheleno/eink16/panel"
	"github.com/flavioheleno/eink16/pixfmt"
	"golang.org/x/image/draw"
	"golang.org/x/term"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	outFile   = flag.String("o", "", "Write the dithered image to this file (format from extension)")
	frameFile = flag.String("frame", "", "Write the packed 4-bit frame to this file")
	replay    = flag.String("replay", "", "Read a frame file instead of dithering an image")
	format    = flag.String("format", "argb8888", "Pixel buffer format: argb8888 or rgb565")
	width     = flag.Int("width", 0, "Target width in pixels (0 keeps the aspect ratio)")
	height    = flag.Int("height", 0, "Target height in pixels (0 keeps the aspect ratio)")
	minSize   = flag.Int("min", 1, "Skip images narrower or shorter than this (0 processes every size)")
	preview   = flag.Bool("preview", false, "Print a preview to the terminal")

	usePanel = flag.Bool("panel", false, "Show the result on an SSD1322 panel")
	panelW   = flag.Int("panel-width", 256, "Panel width in pixels")
	panelH   = flag.Int("panel-height", 64, "Panel height in pixels")
	spiBus   = flag.String("spi", "", "SPI bus name (empty for default)")
	dcPin    = flag.String("dc", "GPIO25", "Data/Command pin name")
	rstPin   = flag.String("rst", "", "Optional reset pin name")
	spiHz    = flag.Int64("hz", 10000000, "SPI frequency in Hz")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <image>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	var frame *image4bit.HorizontalNibble
	if *replay != "" {
		f, err := os.Open(*replay)
		if err != nil {
			log.Fatalf("Failed to open frame file: %v", err)
		}
		frame, err = framefile.Read(f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to read frame file: %v", err)
		}
	} else {
		if flag.NArg() != 1 {
			flag.Usage()
			os.Exit(2)
		}
		frame = ditherFile(flag.Arg(0))
	}

	if *frameFile != "" {
		if err := writeFrame(*frameFile, frame); err != nil {
			log.Fatalf("Failed to write frame file: %v", err)
		}
	}

	if *preview {
		cols := 80
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				cols = w
			}
		}
		for _, line := range renderPreview(frame, cols) {
			fmt.Println(line)
		}
	}

	if *usePanel {
		if err := showOnPanel(frame); err != nil {
			log.Fatalf("Panel output failed: %v", err)
		}
	}
}

// ditherFile loads, fits, converts and dithers the image at path, saving it
// if -o was given, and returns the packed frame.
func ditherFile(path string) *image4bit.HorizontalNibble {
	f, err := parseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}
	buf := pixfmt.FromImage(fit(src, *width, *height), f)

	if !newProcessor(*minSize).Process(buf) {
		log.Printf("%s: %dx%d image left untouched", path, buf.Width, buf.Height)
	}

	if *outFile != "" {
		if err := imaging.Save(buf.Image(), *outFile); err != nil {
			log.Fatalf("Failed to save image: %v", err)
		}
	}
	return image4bit.Pack(buf)
}

// newProcessor gates on a square minimum size. Processor treats zero as its
// 64x64 default, so n <= 0 is mapped to 1.
func newProcessor(n int) *eink16.Processor {
	n = max(n, 1)
	return &eink16.Processor{MinWidth: n, MinHeight: n, Log: log.Default()}
}

func parseFormat(s string) (pixfmt.Format, error) {
	switch s {
	case "argb8888", "32":
		return pixfmt.FormatARGB8888, nil
	case "rgb565", "16":
		return pixfmt.FormatRGB565, nil
	}
	return pixfmt.FormatUnsupported, fmt.Errorf("unknown pixel format %q", s)
}

// fit scales img to w x h. A zero side is derived from the other one to
// keep the aspect ratio; both zero returns img unchanged.
func fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if (w <= 0 && h <= 0) || b.Empty() {
		return img
	}
	switch {
	case w <= 0:
		w = max(1, b.Dx()*h/b.Dy())
	case h <= 0:
		h = max(1, b.Dy()*w/b.Dx())
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writeFrame(path string, frame *image4bit.HorizontalNibble) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := framefile.Write(f, frame); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func showOnPanel(frame *image4bit.HorizontalNibble) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph.io: %w", err)
	}

	b, err := spireg.Open(*spiBus)
	if err != nil {
		return fmt.Errorf("failed to open SPI bus: %w", err)
	}
	defer b.Close()

	dc := gpioreg.ByName(*dcPin)
	if dc == nil {
		return fmt.Errorf("GPIO pin %s not found", *dcPin)
	}
	var rst gpio.PinIO
	if *rstPin != "" {
		if rst = gpioreg.ByName(*rstPin); rst == nil {
			return fmt.Errorf("GPIO pin %s not found", *rstPin)
		}
	}

	dev, err := panel.NewSPI(b, dc, &panel.Opts{
		W:   *panelW,
		H:   *panelH,
		Hz:  physic.Frequency(*spiHz) * physic.Hertz,
		RST: rst,
	})
	if err != nil {
		return err
	}
	log.Printf("Display initialized: %v", dev)
	return dev.Draw(dev.Bounds(), frame, frame.Rect.Min)
}
