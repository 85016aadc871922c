package it8951

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/it8951/graybuf"
)

var _ display.Drawer = (*Dev)(nil)

// drawInfo is the image format used by Draw.
var drawInfo = ImageInfo{Endianness: LittleEndian, Depth: BPP4, Rotation: Rotate0}

// ColorModel returns the color model used by Draw, 16 grey levels.
func (d *Dev) ColorModel() color.Model {
	return graybuf.Model(4)
}

// SetDrawMode selects the waveform used by Draw (default: GC16).
func (d *Dev) SetDrawMode(mode DisplayMode) {
	d.drawMode = mode
}

// Draw renders src onto the panel area dst, src being positioned at sp.
//
// The area is clipped to the panel and widened to multiples of 4 columns; the
// extra columns are also taken from src. The pixels are loaded at 4bpp and
// displayed with the draw mode.
//
// Once a Draw covered the whole panel, later calls only send the bounding box
// of the pixels that changed, and do nothing when none did. FillRect and the
// Write*Pixels methods reset this tracking.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	area := alignArea(dst.Intersect(d.panel), d.panel)
	if area.Empty() {
		return nil
	}

	img := graybuf.New(area, 4)
	img.Fill(15)
	draw.Draw(img, area, src, sp.Add(area.Min.Sub(dst.Min)), draw.Src)

	if d.frameValid {
		area = alignArea(d.changed(img), d.panel)
		if area.Empty() {
			return nil
		}
	}
	if err := d.writePixels(drawInfo, area, img.Pixels(area)); err != nil {
		d.frameValid = false
		return err
	}
	if err := d.DisplayArea(area, d.drawMode); err != nil {
		d.frameValid = false
		return err
	}
	d.remember(img)
	return nil
}

// alignArea widens r to multiples of 4 columns, clamped to the panel.
func alignArea(r, panel image.Rectangle) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	r.Min.X &^= 3
	r.Max.X = (r.Max.X + 3) &^ 3
	if r.Max.X > panel.Max.X {
		r.Max.X = panel.Max.X
	}
	return r
}

// changed returns the bounding box of the pixels of img that differ from the
// last frame drawn.
func (d *Dev) changed(img *graybuf.Image) image.Rectangle {
	var r image.Rectangle
	b := img.Rect
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		next := img.Pix[img.PixOffset(b.Min.X, y):][:w]
		last := d.frame.Pix[d.frame.PixOffset(b.Min.X, y):][:w]
		minCol, maxCol := w, -1
		for x := 0; x < w; x++ {
			if next[x] != last[x] {
				if x < minCol {
					minCol = x
				}
				maxCol = x
			}
		}
		if maxCol >= 0 {
			r = r.Union(image.Rect(b.Min.X+minCol, y, b.Min.X+maxCol+1, y+1))
		}
	}
	return r
}

// remember copies img into the last frame. The frame becomes the reference
// for later draws once it covers the panel.
func (d *Dev) remember(img *graybuf.Image) {
	if d.frame == nil || d.frame.Rect != d.panel {
		d.frame = graybuf.New(d.panel, 4)
	}
	b := img.Rect
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		copy(d.frame.Pix[d.frame.PixOffset(b.Min.X, y):][:w], img.Pix[img.PixOffset(b.Min.X, y):][:w])
	}
	if b == d.panel {
		d.frameValid = true
	}
}
