package it8951sim

import (
	"image"

	"periph.io/x/devices/v3/it8951/graybuf"
)

// loader writes image data words into the image buffer area being loaded.
type loader struct {
	img        *graybuf.Image
	r          image.Rectangle
	little     bool
	bits       int // Bits per stored pixel slot
	threeBit   bool
	ppw        int // Pixels per word
	start, end int // Word aligned column span
	x, y       int
}

func newLoader(img *graybuf.Image, info uint16, r image.Rectangle) *loader {
	l := &loader{
		img:    img,
		r:      r,
		little: (info>>8)&1 == 0,
		y:      r.Min.Y,
	}
	switch (info >> 4) & 0xF {
	case 0:
		l.bits = 2
	case 1:
		l.bits, l.threeBit = 4, true
	case 2:
		l.bits = 4
	case 3:
		l.bits = 8
	default:
		l.bits = 1
	}
	l.ppw = 16 / l.bits
	l.start = r.Min.X - r.Min.X%l.ppw
	l.end = (r.Max.X + l.ppw - 1) / l.ppw * l.ppw
	l.x = l.start
	return l
}

func (l *loader) word(w uint16) {
	if l.y >= l.r.Max.Y || l.start >= l.end {
		return
	}
	mask := uint16(1)<<l.bits - 1
	for i := 0; i < l.ppw; i++ {
		shift := i * l.bits
		if !l.little {
			shift = 16 - (i+1)*l.bits
		}
		v := (w >> shift) & mask
		if l.threeBit {
			v >>= 1
		}
		if col := l.x + i; col >= l.r.Min.X && col < l.r.Max.X {
			l.img.SetLevel(col, l.y, uint8(v))
		}
	}
	l.x += l.ppw
	if l.x >= l.end {
		l.x = l.start
		l.y++
	}
}

// Sent returns a copy of every byte written while chip select was asserted.
func (c *Chip) Sent() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.sent...)
}

// Selects returns how many times chip select was asserted.
func (c *Chip) Selects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selects
}

// Selected reports whether chip select is currently asserted.
func (c *Chip) Selected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// LargestTx returns the size of the largest single Tx seen.
func (c *Chip) LargestTx() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.largestTx
}

// ResetTraffic clears the recorded bytes, chip select count and updates.
func (c *Chip) ResetTraffic() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
	c.selects = 0
	c.largestTx = 0
	c.loadedWords = 0
	c.updates = nil
	c.fills = nil
}

// Updates returns the display commands received.
func (c *Chip) Updates() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Update(nil), c.updates...)
}

// Fills returns the fill rectangle commands received.
func (c *Chip) Fills() []Fill {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Fill(nil), c.fills...)
}

// LoadedWords returns how many image data words were loaded.
func (c *Chip) LoadedWords() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedWords
}

// Register returns the value last written to reg.
func (c *Chip) Register(reg uint16) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[reg]
}

// ImageBufferAddr returns the base address programmed through LISAR.
func (c *Chip) ImageBufferAddr() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint32(c.regs[regLISAR+2])<<16 | uint32(c.regs[regLISAR])
}

// PackedMode reports whether I80CPCR enables packed mode.
func (c *Chip) PackedMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[regI80CPCR] == 1
}

// VCOM returns the VCOM in millivolts and whether it was stored to flash.
func (c *Chip) VCOM() (mV int, persisted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return -int(c.vcom), c.persisted
}

// ForcedTemperature returns the forced temperature and whether it is active.
func (c *Chip) ForcedTemperature() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.forcedTemp), c.forced
}

// Power reports the state of the panel power sequence.
func (c *Chip) Power() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.power
}

// BPP2 reports whether 2bpp display was enabled by BPP_SETTINGS.
func (c *Chip) BPP2() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpp2
}

// State returns "run", "standby" or "sleep".
func (c *Chip) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Image returns a copy of the image buffer, interpreting levels at the given
// depth.
func (c *Chip) Image(bits int) *graybuf.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	img := graybuf.New(c.buffer.Rect, bits)
	for i, p := range c.buffer.Pix {
		img.Pix[i] = p & uint8(1<<bits-1)
	}
	return img
}
