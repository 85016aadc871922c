package it8951

import (
	"fmt"
	"strings"
)

// preamble tags the type of an SPI transaction. It is always the first word
// clocked out after chip select is asserted.
type preamble uint16

const (
	preambleCommand preamble = 0x6000
	preambleWrite   preamble = 0x0000
	preambleRead    preamble = 0x1000
)

// Command is an IT8951 command opcode.
type Command uint16

// TCON and I80 user defined commands.
const (
	CmdSysRun         Command = 0x0001 // Enable all clocks and go to active state
	CmdStandby        Command = 0x0002 // Gate off clocks and go to standby state
	CmdSleep          Command = 0x0003 // Disable all clocks and go to sleep state
	CmdRegRead        Command = 0x0010
	CmdRegWrite       Command = 0x0011
	CmdMemBurstReadT  Command = 0x0012
	CmdMemBurstReadS  Command = 0x0013
	CmdMemBurstWrite  Command = 0x0014
	CmdMemBurstEnd    Command = 0x0015
	CmdLoadImage      Command = 0x0020
	CmdLoadImageArea  Command = 0x0021
	CmdLoadImageEnd   Command = 0x0022
	CmdLoadImage1BPP  Command = 0x0095
	CmdDisplayArea    Command = 0x0034
	CmdDisplayBufArea Command = 0x0037
	CmdPowerSequence  Command = 0x0038
	CmdVCOM           Command = 0x0039
	CmdFillRect       Command = 0x003A
	CmdTemperature    Command = 0x0040
	CmdBPPSettings    Command = 0x0080
	CmdGetDevInfo     Command = 0x0302
)

// Register is a 16-bit register address.
type Register uint16

// Register block base addresses.
const (
	BaseSystem     Register = 0x0000
	BaseMemoryConv Register = 0x0200
	BaseSDCard     Register = 0x0600
	BaseTherm      Register = 0x0800
	BaseSPI        Register = 0x0E00
	BaseDispCtrl   Register = 0x1000
	BaseINTC       Register = 0x1400
	BaseHSUART     Register = 0x1C00
	BaseGPIO       Register = 0x1E00
	BaseJPG        Register = 0x4000
	BaseImageProc  Register = 0x4600
	BaseI2C        Register = 0x4C00
	BaseUSB        Register = 0x4E00
)

// Display control, system and memory converter registers.
const (
	LUT0EWHR  = BaseDispCtrl + 0x000 // LUT0 engine width/height
	LUT0XYR   = BaseDispCtrl + 0x040 // LUT0 XY
	LUT0BADDR = BaseDispCtrl + 0x080 // LUT0 base address
	LUT0MFN   = BaseDispCtrl + 0x0C0 // LUT0 mode and frame number
	LUT01AF   = BaseDispCtrl + 0x114 // LUT0 and LUT1 active flag
	UP0SR     = BaseDispCtrl + 0x134 // Update parameter0 setting
	UP1SR     = BaseDispCtrl + 0x138 // Update parameter1 setting
	LUT0ABFRV = BaseDispCtrl + 0x13C // LUT0 alpha blend and fill rectangle value
	UPBBADDR  = BaseDispCtrl + 0x17C // Update buffer base address
	LUT0IMXY  = BaseDispCtrl + 0x180 // LUT0 image buffer X/Y offset
	LUTAFSR   = BaseDispCtrl + 0x224 // Status of all LUT engines, zero when idle
	BGVR      = BaseDispCtrl + 0x250 // Background/foreground value, 1bpp only

	I80CPCR = BaseSystem + 0x004 // Packed mode enable

	MCSR  = BaseMemoryConv + 0x00
	LISAR = BaseMemoryConv + 0x08 // Image buffer base address, low half; high half at LISAR+2
)

// ColorDepth is the pixel format code sent in a load image command.
type ColorDepth uint16

const (
	BPP2 ColorDepth = 0 // |P[n+7]|P[n+6]|P[n+5]|P[n+4]|P[n+3]|P[n+2]|P[n+1]|P[n+0]|
	BPP3 ColorDepth = 1 // |P[n+3] 0|P[n+2] 0|P[n+1] 0|P[n+0] 0|
	BPP4 ColorDepth = 2 // |P[n+3]|P[n+2]|P[n+1]|P[n+0]|
	BPP8 ColorDepth = 3 // |P[n+1]|P[n+0]|
	BPP1 ColorDepth = 4
)

var depthBits = map[ColorDepth]int{BPP1: 1, BPP2: 2, BPP3: 3, BPP4: 4, BPP8: 8}

// ColorDepthFromBits returns the depth code for a bits-per-pixel value.
func ColorDepthFromBits(bits int) (ColorDepth, error) {
	for d, b := range depthBits {
		if b == bits {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %d bits per pixel", ErrNotSupported, bits)
}

// Bits returns the number of bits per pixel, or 0 for an unknown code.
func (d ColorDepth) Bits() int {
	return depthBits[d]
}

// PixelsPerByte returns how many pixels the chip stores in one byte.
//
// 3bpp shares the 4bpp layout, each pixel padded to a nibble.
func (d ColorDepth) PixelsPerByte() int {
	switch d {
	case BPP1:
		return 8
	case BPP2:
		return 4
	case BPP3, BPP4:
		return 2
	case BPP8:
		return 1
	}
	return 0
}

// MaxValue is the largest pixel value representable at this depth.
func (d ColorDepth) MaxValue() int {
	return 1<<d.Bits() - 1
}

func (d ColorDepth) String() string {
	if b := d.Bits(); b != 0 {
		return fmt.Sprintf("%dbpp", b)
	}
	return fmt.Sprintf("ColorDepth(%d)", uint16(d))
}

// Rotation is the rotation applied by the chip while loading an image.
type Rotation uint16

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Endianness is the byte order of packed image data.
type Endianness uint16

const (
	LittleEndian Endianness = 0
	BigEndian    Endianness = 1
)

func (e Endianness) String() string {
	switch e {
	case LittleEndian:
		return "little-endian"
	case BigEndian:
		return "big-endian"
	}
	return fmt.Sprintf("Endianness(%d)", uint16(e))
}

// DisplayMode selects the waveform used by the LUT engine.
//
// See http://www.waveshare.net/w/upload/c/c4/E-paper-mode-declaration.pdf
type DisplayMode uint16

const (
	ModeInit  DisplayMode = 0 // Full clear, use after power up or heavy A2 usage
	ModeDU    DisplayMode = 1 // Fast, monochrome
	ModeGC16  DisplayMode = 2 // 16 grey levels with flashing
	ModeGL16  DisplayMode = 3
	ModeGLR16 DisplayMode = 4
	ModeGLD16 DisplayMode = 5
	ModeA2    DisplayMode = 6 // Fastest, black and white only
	ModeDU4   DisplayMode = 7
)

var modeNames = [...]string{"INIT", "DU", "GC16", "GL16", "GLR16", "GLD16", "A2", "DU4"}

func (m DisplayMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("DisplayMode(%d)", uint16(m))
}

// ParseDisplayMode parses a waveform name such as "GC16" or "a2".
func ParseDisplayMode(s string) (DisplayMode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, s) {
			return DisplayMode(i), nil
		}
	}
	return 0, fmt.Errorf("it8951: unknown display mode %q", s)
}

// ImageInfo describes the layout of pixel data sent to the image buffer.
type ImageInfo struct {
	Endianness Endianness
	Depth      ColorDepth
	Rotation   Rotation
}

// Word packs the info into the first argument of a load image command.
func (i ImageInfo) Word() uint16 {
	return uint16(i.Endianness)<<8 | uint16(i.Depth)<<4 | uint16(i.Rotation)
}
