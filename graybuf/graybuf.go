package graybuf

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Level is a grey level at a given bit depth (1 to 8 bits).
// Only the lower Bits bits of Y are used.
type Level struct {
	Y    uint8
	Bits uint8
}

func (c Level) max() uint32 {
	return 1<<c.Bits - 1
}

// RGBA converts the level to standard RGBA, scaling the full range of the
// depth to 0-65535.
func (c Level) RGBA() (r, g, b, a uint32) {
	m := c.max()
	if m == 0 {
		return 0, 0, 0, 0xFFFF
	}
	y := (uint32(c.Y) & m) * 0xFFFF / m
	return y, y, y, 0xFFFF
}

var models [9]color.Model

func init() {
	for bits := 1; bits <= 8; bits++ {
		models[bits] = color.ModelFunc(converter(uint8(bits)))
	}
}

func converter(bits uint8) func(color.Color) color.Color {
	return func(c color.Color) color.Color {
		if l, ok := c.(Level); ok && l.Bits == bits {
			return l
		}
		r, g, b, _ := c.RGBA()
		// Standard grayscale conversion: 0.299R + 0.587G + 0.114B
		y := (299*r + 587*g + 114*b + 500) / 1000
		return Level{Y: uint8(y >> (16 - bits)), Bits: bits}
	}
}

// Model returns the colour model converting to Level at the given depth.
// It panics if bits is not between 1 and 8.
func Model(bits int) color.Model {
	checkBits(bits)
	return models[bits]
}

func checkBits(bits int) {
	if bits < 1 || bits > 8 {
		panic(fmt.Sprintf("graybuf: invalid depth %d", bits))
	}
}

// Image is a grey-level image storing one pixel per byte, row major.
type Image struct {
	Pix    []byte          // Pixel levels, 0 to 1<<Bits-1
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
	Bits   int             // Bits per pixel
}

// New creates an image with the given bounds and depth.
func New(r image.Rectangle, bits int) *Image {
	checkBits(bits)
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r, Bits: bits}
	}
	return &Image{
		Pix:    make([]byte, w*h),
		Stride: w,
		Rect:   r,
		Bits:   bits,
	}
}

// Convert draws src into a new image of the same bounds at the given depth.
func Convert(src image.Image, bits int) *Image {
	b := src.Bounds()
	img := New(b, bits)
	draw.Draw(img, b, src, b.Min, draw.Src)
	return img
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model(p.Bits)
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return p.LevelAt(x, y)
}

// LevelAt returns the grey level of the pixel at (x, y).
func (p *Image) LevelAt(x, y int) Level {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Level{Bits: uint8(p.Bits)}
	}
	return Level{Y: p.Pix[p.PixOffset(x, y)], Bits: uint8(p.Bits)}
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	l := p.ColorModel().Convert(c).(Level)
	p.Pix[p.PixOffset(x, y)] = l.Y & uint8(l.max())
}

// SetLevel sets the grey level of the pixel at (x, y) without conversion.
// Bits of Y above the image depth are dropped.
func (p *Image) SetLevel(x, y int, y8 uint8) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = y8 & uint8(1<<p.Bits-1)
}

// Fill sets every pixel to the level y8.
func (p *Image) Fill(y8 uint8) {
	y8 &= uint8(1<<p.Bits - 1)
	for i := range p.Pix {
		p.Pix[i] = y8
	}
}

// PixOffset returns the index of the pixel at (x, y) in Pix.
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

// Pixels returns a row-major copy of the pixels in r, clipped to the image.
// The result is the colour buffer expected by the IT8951 packer.
func (p *Image) Pixels(r image.Rectangle) []byte {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return nil
	}
	w := r.Dx()
	out := make([]byte, 0, w*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := p.PixOffset(r.Min.X, y)
		out = append(out, p.Pix[i:i+w]...)
	}
	return out
}
