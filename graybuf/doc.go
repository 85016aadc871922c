// Package graybuf provides a grey-level image format for e-paper controllers.
//
// E-paper controllers such as the IT8951 take 1 to 8 bits per pixel. This
// package keeps one pixel per byte so that any depth can be drawn with the
// standard image/draw package; packing into the controller's word layout is
// left to the driver.
//
// Memory layout example for a 4-pixel row at 4 bits per pixel:
//
//	Pixels: 0    1    2    3
//	Values: 5    10   3    12
//	Pix:    0x05 0x0A 0x03 0x0C
//
// This package provides:
//
// - Level: a grey level quantised to a depth
// - Model: a color model converting standard Go colors to Level
// - Image: a draw.Image whose Pixels method returns a flat colour buffer
//
// Example usage:
//
//	// Create a 1872x1404 image at 4 bits per pixel
//	img := graybuf.New(image.Rect(0, 0, 1872, 1404), 4)
//
//	// Paint it white
//	img.Fill(15)
//
//	// Use with standard Go image operations
//	draw.Draw(img, r, src, image.Point{}, draw.Src)
//
//	// Extract the colour buffer of an area
//	pix := img.Pixels(r)
package graybuf
