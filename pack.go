package it8951

import (
	"fmt"
	"image"
)

type packKey struct {
	depth  ColorDepth
	endian Endianness
}

// packFunc packs validated pixels. len(pix) is r.Dx()*r.Dy().
type packFunc func(r image.Rectangle, pix []byte) []uint16

// packers lists the implemented depth/endianness pairs. Everything else is
// reported as ErrNotSupported.
var packers = map[packKey]packFunc{
	{BPP4, LittleEndian}: pack4BPPLittle,
}

// Pack converts a row-major buffer of one pixel per byte into the words
// expected by the image buffer for the area r.
//
// Only 4bpp little-endian data is implemented. Rows are padded with zero
// pixels so that they start and end on a multiple of 4 columns, and four
// pixels form one word: p0 | p1<<4 | p2<<8 | p3<<12.
func Pack(info ImageInfo, r image.Rectangle, pix []byte) ([]uint16, error) {
	if info.Depth == BPP1 {
		return nil, fmt.Errorf("%w: 1bpp packing", ErrNotSupported)
	}
	if r.Min.X < 0 || r.Min.Y < 0 {
		return nil, fmt.Errorf("%w: %v", ErrOutOfBounds, r)
	}
	if n := r.Dx() * r.Dy(); len(pix) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrPixelCount, len(pix), n)
	}
	pack, ok := packers[packKey{info.Depth, info.Endianness}]
	if !ok {
		return nil, fmt.Errorf("%w: packing %s %s data", ErrNotSupported, info.Depth, info.Endianness)
	}
	limit := info.Depth.MaxValue()
	for i, p := range pix {
		if int(p) > limit {
			return nil, fmt.Errorf("%w: pixel %d is %d, %s allows %d", ErrColour, i, p, info.Depth, limit)
		}
	}
	return pack(r, pix), nil
}

func pack4BPPLittle(r image.Rectangle, pix []byte) []uint16 {
	w, h := r.Dx(), r.Dy()
	lead := r.Min.X % 4
	trail := (4 - r.Max.X%4) % 4
	stride := lead + w + trail

	words := make([]uint16, 0, stride/4*h)
	row := make([]byte, stride)
	for y := 0; y < h; y++ {
		// Padding columns stay zero, only the payload is overwritten.
		copy(row[lead:], pix[y*w:(y+1)*w])
		for i := 0; i < stride; i += 4 {
			words = append(words, uint16(row[i])|uint16(row[i+1])<<4|uint16(row[i+2])<<8|uint16(row[i+3])<<12)
		}
	}
	return words
}
