// Package it8951 controls an IT8951 e-paper timing controller via SPI.
//
// The IT8951 drives electrophoretic panels of up to 2048×2048 pixels, such as
// the Waveshare 6", 7.8", 9.7" and 10.3" HATs. Pixels are loaded into the
// controller's image buffer and rendered to the panel by its LUT engines
// using a waveform display mode. This driver implements the display.Drawer
// interface from periph.io.
//
// # Controller Characteristics
//
// - 2, 3, 4 or 8 bits per pixel image loads (1bpp is not supported)
// - Partial loads and partial refreshes of any area of the panel
// - Eight waveform display modes, from INIT (full clear) to A2 (fastest)
// - Hardware fill of rectangles without loading pixels
// - Programmable VCOM, optionally stored in flash
// - Temperature sensor with an optional forced value
//
// # Hardware Connection
//
// Connect the IT8951 board to your system via SPI:
//
//	Board Pin → System Pin
//	GND       → GND
//	5V        → 5V
//	SCK       → SPI Clock (SCLK)
//	MOSI      → SPI Data (MOSI)
//	MISO      → SPI Data (MISO)
//	CS        → GPIO (driven by the driver, not the SPI controller)
//	HRDY      → GPIO input
//	RST       → Optional: GPIO for hardware reset
//
// Chip select must be a plain GPIO: a transaction spans many SPI transfers and
// CS has to stay asserted between them.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"image"
//		"log"
//
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/it8951"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		p, err := spireg.Open("")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer p.Close()
//
//		dev, err := it8951.NewSPI(p, gpioreg.ByName("GPIO8"), gpioreg.ByName("GPIO24"), &it8951.Opts{
//			VCOM: -1580, // As printed on the panel's flex cable
//			RST:  gpioreg.ByName("GPIO17"),
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Sleep()
//
//		// Clear the panel to white
//		dev.FillRect(dev.Bounds(), it8951.ModeInit, 0xFF)
//
//		// Draw any image.Image, converted to 16 grey levels
//		dev.Draw(dev.Bounds(), myImage, image.Point{})
//	}
//
// # Loading Pixels
//
// Three methods load pixels into the image buffer. None of them changes the
// panel; call DisplayArea afterwards.
//
// WritePixels takes one grey level per byte and packs them:
//
//	info := it8951.ImageInfo{Endianness: it8951.LittleEndian, Depth: it8951.BPP4}
//	dev.WritePixels(info, image.Rect(0, 0, 100, 50), levels)
//	dev.DisplayArea(image.Rect(0, 0, 100, 50), it8951.ModeGC16)
//
// WritePackedPixels takes words as returned by Pack, and WriteRawPixels takes
// bytes that are already laid out for the controller, for example the pixel
// array of a 4bpp bitmap. Raw data is streamed without waiting for HRDY
// between words, in transfers no larger than the SPI port allows.
//
// # Display Modes
//
// The waveform is chosen per refresh:
//
//	it8951.ModeInit  // Full clear, use after power up
//	it8951.ModeDU    // Fast, black and white
//	it8951.ModeGC16  // 16 grey levels, flashing
//	it8951.ModeA2    // Fastest, black and white, ghosting accumulates
//
// DisplayArea waits for the previous refresh to complete before starting a new
// one. Opts.DisplayTimeout bounds that wait.
//
// # VCOM
//
// Each panel is calibrated for the VCOM printed on its flex cable, for example
// -1.58V. Set Opts.VCOM to apply it at initialization, or call SetVCOM. Using
// the wrong value degrades contrast and may damage the panel over time.
//
// # Testing
//
// Package it8951sim provides a simulated controller that can be passed to New
// in place of an SPI connection.
//
// # Datasheet
//
// https://www.waveshare.net/w/upload/1/18/IT8951_D_V0.2.4.3_20170728.pdf
//
// # Compatibility with periph.io
//
// This driver implements the display.Drawer interface from periph.io:
// https://pkg.go.dev/periph.io/x/conn/v3/display
package it8951
