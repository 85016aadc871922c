// Package bitmap reads the raw pixel array of uncompressed Windows bitmaps.
//
// Unlike golang.org/x/image/bmp, which decodes to an image.Image, this
// package keeps the pixels in their stored bit depth so they can be sent to
// an IT8951 image buffer without conversion.
package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"periph.io/x/devices/v3/it8951"
)

var (
	ErrNotBitmap        = errors.New("bitmap: missing Windows (BM) bitmap header")
	ErrUnsupportedDepth = errors.New("bitmap: unsupported bits per pixel")
	ErrCompressed       = errors.New("bitmap: compressed bitmaps are not supported")
	ErrTruncated        = errors.New("bitmap: truncated pixel array")
)

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
)

// Bitmap is the raw content of a bitmap file.
type Bitmap struct {
	Width        int
	Height       int
	BitsPerPixel int
	Palette      color.Palette
	// Data holds the rows top to bottom, each (Width*BitsPerPixel+7)/8 bytes
	// long without the 4 byte row alignment of the file. Pixels within a byte
	// are stored most significant bits first.
	Data []byte
}

// Read reads a bitmap from r.
func Read(r io.Reader) (*Bitmap, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Decode parses an in-memory bitmap file.
func Decode(b []byte) (*Bitmap, error) {
	if len(b) < fileHeaderLen+infoHeaderLen || !bytes.Equal(b[:2], []byte("BM")) {
		return nil, ErrNotBitmap
	}
	le := binary.LittleEndian
	offset := int(le.Uint32(b[10:]))
	dibLen := int(le.Uint32(b[14:]))
	width := int(int32(le.Uint32(b[18:])))
	height := int(int32(le.Uint32(b[22:])))
	bpp := int(le.Uint16(b[28:]))
	compression := le.Uint32(b[30:])
	colorsUsed := int(le.Uint32(b[46:]))

	switch bpp {
	case 1, 2, 4, 8, 24:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, bpp)
	}
	if compression != 0 {
		return nil, ErrCompressed
	}
	if width <= 0 || height == 0 {
		return nil, fmt.Errorf("bitmap: invalid size %dx%d", width, height)
	}
	topDown := height < 0
	if topDown {
		height = -height
	}

	bm := &Bitmap{Width: width, Height: height, BitsPerPixel: bpp}
	if bpp <= 8 {
		if colorsUsed == 0 {
			colorsUsed = 1 << bpp
		}
		start := fileHeaderLen + dibLen
		if start+4*colorsUsed > len(b) {
			return nil, ErrTruncated
		}
		for i := 0; i < colorsUsed; i++ {
			e := b[start+4*i:]
			bm.Palette = append(bm.Palette, color.RGBA{R: e[2], G: e[1], B: e[0], A: 0xFF})
		}
	}

	rowLen := (width*bpp + 7) / 8
	stride := (width*bpp + 31) / 32 * 4
	if offset < 0 || offset+stride*(height-1)+rowLen > len(b) {
		return nil, ErrTruncated
	}
	bm.Data = make([]byte, 0, rowLen*height)
	for y := 0; y < height; y++ {
		src := y
		if !topDown {
			src = height - 1 - y
		}
		i := offset + src*stride
		bm.Data = append(bm.Data, b[i:i+rowLen]...)
	}
	return bm, nil
}

// RowLen returns the number of bytes of a row in Data.
func (bm *Bitmap) RowLen() int {
	return (bm.Width*bm.BitsPerPixel + 7) / 8
}

// Indices returns one palette index per pixel, row major. It is only valid
// for bitmaps of 8 bits per pixel or less.
func (bm *Bitmap) Indices() ([]byte, error) {
	bpp := bm.BitsPerPixel
	if bpp > 8 {
		return nil, fmt.Errorf("%w: %d bits has no palette", ErrUnsupportedDepth, bpp)
	}
	rowLen := bm.RowLen()
	mask := byte(1<<bpp - 1)
	out := make([]byte, 0, bm.Width*bm.Height)
	for y := 0; y < bm.Height; y++ {
		row := bm.Data[y*rowLen : (y+1)*rowLen]
		for x := 0; x < bm.Width; x++ {
			bit := x * bpp
			shift := 8 - bpp - bit%8
			out = append(out, row[bit/8]>>shift&mask)
		}
	}
	return out, nil
}

// ImageInfo returns the IT8951 image format matching Data.
//
// Data keeps the first pixel in the most significant bits, which is the
// controller's big-endian layout. This has only been checked against the
// simulator, not against hardware.
func (bm *Bitmap) ImageInfo() (it8951.ImageInfo, error) {
	depth, err := it8951.ColorDepthFromBits(bm.BitsPerPixel)
	if err != nil {
		return it8951.ImageInfo{}, err
	}
	return it8951.ImageInfo{Endianness: it8951.BigEndian, Depth: depth, Rotation: it8951.Rotate0}, nil
}
