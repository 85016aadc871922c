// Package it8951sim simulates an IT8951 controller behind an SPI connection.
//
// A Chip implements conn.Conn and provides the chip select and HRDY pins, so
// it can be handed to it8951.New in place of real hardware. It decodes the
// framed protocol, answers register, VCOM, temperature and device info
// queries, keeps an image buffer and records the traffic for tests.
package it8951sim

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/it8951/graybuf"
)

// Wire values, kept separate from the driver so that tests compare the two.
const (
	preCommand = 0x6000
	preWrite   = 0x0000
	preRead    = 0x1000

	cmdSysRun       = 0x0001
	cmdStandby      = 0x0002
	cmdSleep        = 0x0003
	cmdRegRead      = 0x0010
	cmdRegWrite     = 0x0011
	cmdMemBurstEnd  = 0x0015
	cmdLoadImage    = 0x0020
	cmdLoadArea     = 0x0021
	cmdLoadEnd      = 0x0022
	cmdDisplayArea  = 0x0034
	cmdDisplayBuf   = 0x0037
	cmdPower        = 0x0038
	cmdVCOM         = 0x0039
	cmdFillRect     = 0x003A
	cmdTemperature  = 0x0040
	cmdBPPSettings  = 0x0080
	cmdGetDevInfo   = 0x0302
	regLUTAFSR      = 0x1224
	regLISAR        = 0x0208
	regI80CPCR      = 0x0004
	lutStatusBusy   = 0x0001
	defaultVCOM     = 1500
	defaultTempC    = 25
	defaultBaseAddr = 0x00360000
)

// Opts configures a simulated chip.
type Opts struct {
	Width, Height   int
	ImageBufferAddr uint32
	FirmwareVersion string // At most 16 characters
	LUTVersion      string // At most 16 characters
	VCOM            int    // Millivolts, negative
	Temperature     int    // °C
	// Number of LUTAFSR reads reporting busy after each display command.
	BusyPolls int
	// Largest Tx accepted, 0 for unlimited. Reported through conn.Limits.
	MaxTx int
}

// DefaultOpts describes a 10.3" 1872x1404 panel.
var DefaultOpts = Opts{
	Width:           1872,
	Height:          1404,
	ImageBufferAddr: defaultBaseAddr,
	FirmwareVersion: "SWv_0.1.1",
	LUTVersion:      "M841_TFA2812",
	VCOM:            -defaultVCOM,
	Temperature:     defaultTempC,
}

// Update is a display command received by the chip.
type Update struct {
	Rect image.Rectangle
	Mode uint16
	Addr uint32 // Only set by DPY_BUF_AREA
}

// Fill is a fill rectangle command received by the chip.
type Fill struct {
	Rect   image.Rectangle
	Mode   uint16
	Colour uint16
}

// Chip is a simulated IT8951. It is safe for concurrent use.
type Chip struct {
	mu   sync.Mutex
	opts Opts
	cs   *csPin
	hrdy *gpiotest.Pin

	regs        map[uint16]uint16
	vcom        uint16
	persisted   bool
	forcedTemp  int16
	forced      bool
	power       bool
	bpp2        bool
	state       string
	busy        int
	buffer      *graybuf.Image
	updates     []Update
	fills       []Fill
	sent        []byte
	selects     int
	largestTx   int
	loadedWords int

	// Current transaction
	selected bool
	havePre  bool
	pre      uint16
	carry    []byte
	reads    int

	// Current command
	cmd     uint16
	pending bool
	args    []uint16
	out     []uint16
	load    *loader
}

// New returns a simulated chip. opts can be nil to use DefaultOpts.
func New(opts *Opts) *Chip {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	c := &Chip{
		opts:   *opts,
		hrdy:   &gpiotest.Pin{N: "HRDY", L: gpio.High},
		regs:   map[uint16]uint16{},
		vcom:   uint16(-opts.VCOM),
		state:  "run",
		buffer: graybuf.New(image.Rect(0, 0, opts.Width, opts.Height), 8),
	}
	c.cs = &csPin{Pin: &gpiotest.Pin{N: "CS", L: gpio.High}, c: c}
	return c
}

// CS returns the active low chip select pin to pass to the driver.
func (c *Chip) CS() gpio.PinOut {
	return c.cs
}

// HRDY returns the host ready pin. Set its L field to gpio.Low to stall the
// driver.
func (c *Chip) HRDY() *gpiotest.Pin {
	return c.hrdy
}

// String implements conn.Conn.
func (c *Chip) String() string {
	return fmt.Sprintf("it8951sim{%dx%d}", c.opts.Width, c.opts.Height)
}

// Duplex implements conn.Conn.
func (c *Chip) Duplex() conn.Duplex {
	return conn.Full
}

// MaxTxSize implements conn.Limits.
func (c *Chip) MaxTxSize() int {
	return c.opts.MaxTx
}

// Tx implements conn.Conn. Every byte of w is decoded as part of the
// current transaction; r receives the controller's answer.
func (c *Chip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.selected {
		return errors.New("it8951sim: Tx with chip select released")
	}
	if c.opts.MaxTx > 0 && len(w) > c.opts.MaxTx {
		return fmt.Errorf("it8951sim: Tx of %d bytes above limit %d", len(w), c.opts.MaxTx)
	}
	if len(r) != 0 && (len(r) != len(w) || len(w)%2 != 0 || len(c.carry) != 0) {
		return errors.New("it8951sim: reads must be whole words")
	}
	if len(w) > c.largestTx {
		c.largestTx = len(w)
	}
	c.sent = append(c.sent, w...)

	buf := append(c.carry, w...)
	n := len(buf) / 2 * 2
	for i := 0; i < n; i += 2 {
		resp := c.word(uint16(buf[i])<<8 | uint16(buf[i+1]))
		if len(r) != 0 {
			r[i] = byte(resp >> 8)
			r[i+1] = byte(resp)
		}
	}
	c.carry = append([]byte(nil), buf[n:]...)
	return nil
}

func (c *Chip) setSelected(sel bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sel == c.selected {
		return
	}
	c.selected = sel
	if sel {
		c.selects++
		c.havePre = false
		c.reads = 0
		c.carry = nil
	}
}

// word handles one word clocked in and returns the word clocked out.
func (c *Chip) word(w uint16) uint16 {
	if !c.havePre {
		c.havePre = true
		c.pre = w
		return 0
	}
	switch c.pre {
	case preCommand:
		c.command(w)
	case preWrite:
		c.data(w)
	case preRead:
		c.reads++
		// The first word clocked after the preamble is a dummy.
		if c.reads == 1 || len(c.out) == 0 {
			return 0
		}
		v := c.out[0]
		c.out = c.out[1:]
		return v
	}
	return 0
}

func (c *Chip) command(cmd uint16) {
	c.cmd = cmd
	c.args = nil
	c.out = nil
	c.pending = true
	c.exec()
}

func (c *Chip) data(w uint16) {
	if c.load != nil && !c.pending {
		c.load.word(w)
		c.loadedWords++
		return
	}
	if !c.pending {
		return
	}
	c.args = append(c.args, w)
	c.exec()
}

// exec runs the current command once all its arguments arrived.
func (c *Chip) exec() {
	a := c.args
	done := true
	switch c.cmd {
	case cmdSysRun:
		c.state = "run"
	case cmdStandby:
		c.state = "standby"
	case cmdSleep:
		c.state = "sleep"
	case cmdMemBurstEnd:
	case cmdGetDevInfo:
		c.out = c.devInfo()
	case cmdRegRead:
		if done = len(a) == 1; done {
			c.out = []uint16{c.readReg(a[0])}
		}
	case cmdRegWrite:
		if done = len(a) == 2; done {
			c.regs[a[0]] = a[1]
		}
	case cmdVCOM:
		switch {
		case len(a) == 0:
			done = false
		case a[0] == 0:
			c.out = []uint16{c.vcom}
		case len(a) < 2:
			done = false
		default:
			c.vcom = a[1]
			c.persisted = a[0] == 2
		}
	case cmdTemperature:
		switch {
		case len(a) == 0:
			done = false
		case a[0] == 0:
			c.out = []uint16{uint16(int16(c.opts.Temperature)), uint16(c.forcedTemp)}
		case a[0] == 2:
			c.forced = false
		case len(a) < 2:
			done = false
		default:
			c.forced = true
			c.forcedTemp = int16(a[1])
		}
	case cmdPower:
		if done = len(a) == 1; done {
			c.power = a[0] != 0
		}
	case cmdBPPSettings:
		if done = len(a) == 1; done {
			c.bpp2 = a[0] != 0
		}
	case cmdFillRect:
		if done = len(a) == 6; done {
			f := Fill{Rect: argRect(a), Mode: a[4] & 0xFF, Colour: a[5]}
			c.fills = append(c.fills, f)
			c.fill(f.Rect, byte(f.Colour))
		}
	case cmdDisplayArea:
		if done = len(a) == 5; done {
			c.updates = append(c.updates, Update{Rect: argRect(a), Mode: a[4]})
			c.busy = c.opts.BusyPolls
		}
	case cmdDisplayBuf:
		if done = len(a) == 7; done {
			addr := uint32(a[6])<<16 | uint32(a[5])
			c.updates = append(c.updates, Update{Rect: argRect(a), Mode: a[4], Addr: addr})
			c.busy = c.opts.BusyPolls
		}
	case cmdLoadImage:
		if done = len(a) == 1; done {
			c.load = newLoader(c.buffer, a[0], c.buffer.Rect)
		}
	case cmdLoadArea:
		if done = len(a) == 5; done {
			c.load = newLoader(c.buffer, a[0], argRect(a[1:]))
		}
	case cmdLoadEnd:
		c.load = nil
	}
	if done {
		c.pending = false
	}
}

func (c *Chip) readReg(reg uint16) uint16 {
	if reg == regLUTAFSR {
		if c.busy > 0 {
			c.busy--
			return lutStatusBusy
		}
		return 0
	}
	return c.regs[reg]
}

func (c *Chip) devInfo() []uint16 {
	w := make([]uint16, 0, 20)
	w = append(w, uint16(c.opts.Width), uint16(c.opts.Height),
		uint16(c.opts.ImageBufferAddr), uint16(c.opts.ImageBufferAddr>>16))
	w = append(w, stringWords(c.opts.FirmwareVersion)...)
	return append(w, stringWords(c.opts.LUTVersion)...)
}

// stringWords encodes s as 8 words, two characters per word, high byte
// first, NUL padded.
func stringWords(s string) []uint16 {
	var b [16]byte
	copy(b[:], s)
	w := make([]uint16, 8)
	for i := range w {
		w[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return w
}

func (c *Chip) fill(r image.Rectangle, colour byte) {
	r = r.Intersect(c.buffer.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c.buffer.SetLevel(x, y, colour)
		}
	}
}

func argRect(a []uint16) image.Rectangle {
	return image.Rect(int(a[0]), int(a[1]), int(a[0])+int(a[2]), int(a[1])+int(a[3]))
}

// csPin forwards chip select changes to the chip.
type csPin struct {
	*gpiotest.Pin
	c *Chip
}

func (p *csPin) Out(l gpio.Level) error {
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	p.c.setSelected(l == gpio.Low)
	return nil
}
