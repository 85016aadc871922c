package it8951

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/it8951/graybuf"
)

// MaxFreq is the highest SPI clock supported by the controller.
const MaxFreq = 24 * physic.MegaHertz

// Opts is the configuration for the IT8951 controller.
type Opts struct {
	// SPI clock (default: 12MHz, must be ≤24MHz). Only used by NewSPI.
	Freq physic.Frequency

	// VCOM in millivolts. Must be negative; 0 keeps the controller's value.
	// Development boards ship with waveforms tuned for the VCOM printed on the
	// panel's flex cable, setting another value degrades the image.
	VCOM int

	// Optional hardware reset pin
	RST gpio.PinOut

	// HRDY polling. A zero ReadyTimeout waits forever.
	ReadyPoll    time.Duration
	ReadyTimeout time.Duration

	// LUT engine polling in DisplayArea. A zero DisplayTimeout waits forever.
	DisplayPoll    time.Duration
	DisplayTimeout time.Duration

	// Debug logging of bus operations (default: discarded)
	Logger *slog.Logger
}

// DefaultOpts is used when NewSPI or New receive nil options.
var DefaultOpts = Opts{
	Freq:        12 * physic.MegaHertz,
	DisplayPoll: time.Millisecond,
}

// Dev is the device handle for the IT8951 controller.
//
// Dev is not safe for concurrent use; it must have a single owner.
type Dev struct {
	// Communication
	c     conn.Conn
	cs    gpio.PinOut // Active low chip select
	hrdy  gpio.PinIn  // Host ready, driven by the controller
	maxTx int         // Largest single Tx, 0 when unlimited

	opts Opts
	log  *slog.Logger

	// Set by Init
	info  DeviceInfo
	panel image.Rectangle

	drawMode DisplayMode

	// Last frame loaded by Draw, valid once a Draw covered the whole panel
	frame      *graybuf.Image
	frameValid bool
}

// NewSPI creates a new IT8951 device connected via SPI and initializes it.
//
// The SPI port is configured for Mode0, 8-bit transfers, with chip select
// driven by the cs GPIO so that it stays asserted for a whole transaction.
// hrdy is the controller's HRDY output.
//
// opts can be nil to use DefaultOpts.
func NewSPI(p spi.Port, cs gpio.PinOut, hrdy gpio.PinIn, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	freq := opts.Freq
	if freq == 0 {
		freq = DefaultOpts.Freq
	}
	if freq > MaxFreq {
		return nil, fmt.Errorf("it8951: SPI clock %s above %s", freq, MaxFreq)
	}
	if err := hrdy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("it8951: failed to configure HRDY: %w", err)
	}
	c, err := p.Connect(freq, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		return nil, err
	}
	return New(c, cs, hrdy, opts)
}

// New creates a new IT8951 device on an already configured connection and
// initializes it.
func New(c conn.Conn, cs gpio.PinOut, hrdy gpio.PinIn, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if c == nil || cs == nil || hrdy == nil {
		return nil, errors.New("it8951: connection, CS and HRDY are required")
	}
	if opts.VCOM > 0 || opts.VCOM < -0xFFFF {
		return nil, fmt.Errorf("%w: %d", ErrVCOM, opts.VCOM)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dev{
		c:        c,
		cs:       cs,
		hrdy:     hrdy,
		opts:     *opts,
		log:      logger,
		drawMode: ModeGC16,
	}
	if l, ok := c.(conn.Limits); ok {
		d.maxTx = l.MaxTxSize()
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("it8951: failed to release CS: %w", err)
	}
	if err := d.reset(); err != nil {
		return nil, err
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// reset pulses the optional RST pin.
func (d *Dev) reset() error {
	rst := d.opts.RST
	if rst == nil {
		return nil
	}
	if err := rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("it8951: failed to pull RST low: %w", err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := rst.Out(gpio.High); err != nil {
		return fmt.Errorf("it8951: failed to pull RST high: %w", err)
	}
	time.Sleep(200 * time.Millisecond)
	return nil
}

// Init reads the panel description, programs the image buffer address,
// enables packed mode and applies Opts.VCOM. The panel information cached by
// a previous Init is only replaced when all steps succeed.
func (d *Dev) Init() error {
	info, err := d.GetDeviceInfo()
	if err != nil {
		return err
	}
	if info.Width == 0 || info.Height == 0 {
		return ErrNoCommunication
	}
	d.log.Debug("device info", "width", info.Width, "height", info.Height,
		"addr", fmt.Sprintf("%#x", info.ImageBufferAddr),
		"firmware", info.FirmwareVersion, "lut", info.LUTVersion)

	if err := d.setImageBufferBase(info.ImageBufferAddr); err != nil {
		return err
	}
	if err := d.setPackedMode(true); err != nil {
		return err
	}
	d.frameValid = false

	vcom, err := d.VCOM()
	if err != nil {
		return err
	}
	d.log.Debug("vcom", "mV", vcom)
	if want := d.opts.VCOM; want != 0 && want != vcom {
		if err := d.SetVCOM(want, false); err != nil {
			return err
		}
		got, err := d.VCOM()
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: got %d mV, want %d mV", ErrVCOMVerify, got, want)
		}
		d.log.Debug("vcom updated", "mV", got)
	}
	d.info = info
	d.panel = info.Bounds()
	return nil
}

// DeviceInfo returns the panel description cached by Init.
func (d *Dev) DeviceInfo() DeviceInfo {
	return d.info
}

// Bounds returns the addressable panel area.
func (d *Dev) Bounds() image.Rectangle {
	return d.panel
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("it8951.Dev{%dx%d}", d.panel.Dx(), d.panel.Dy())
}

// Run enables all clocks and puts the controller in the active state.
func (d *Dev) Run() error {
	return d.sendCommand(CmdSysRun)
}

// Standby gates off the clocks.
func (d *Dev) Standby() error {
	return d.sendCommand(CmdStandby)
}

// Sleep disables all clocks. Run wakes the controller up.
func (d *Dev) Sleep() error {
	return d.sendCommand(CmdSleep)
}

// Halt puts the controller to sleep.
func (d *Dev) Halt() error {
	return d.Sleep()
}

// SetPower turns the panel power sequence on or off.
func (d *Dev) SetPower(on bool) error {
	return d.sendCommandArgs(CmdPowerSequence, boolWord(on))
}

// VCOM returns the current VCOM in millivolts. It is always negative.
func (d *Dev) VCOM() (int, error) {
	if err := d.sendCommandArgs(CmdVCOM, 0); err != nil {
		return 0, err
	}
	rx, err := d.readData(1)
	if err != nil {
		return 0, err
	}
	return -int(rx[0]), nil
}

// SetVCOM sets VCOM in millivolts. mV must be negative; only its magnitude
// is sent, -1580 mV is written as 0x062C. If persist is set the value is
// also stored in flash.
func (d *Dev) SetVCOM(mV int, persist bool) error {
	if mV >= 0 || mV < -0xFFFF {
		return fmt.Errorf("%w: %d", ErrVCOM, mV)
	}
	arg := uint16(1)
	if persist {
		arg = 2
	}
	return d.sendCommandArgs(CmdVCOM, arg, uint16(-mV))
}

// Temperature returns the temperature sensor reading and the forced
// temperature, in °C. The forced value is meaningless unless
// ForceTemperature was called.
//
// The order of the two values is taken from the datasheet and has not been
// verified against hardware.
func (d *Dev) Temperature() (measured, forced int, err error) {
	if err := d.sendCommandArgs(CmdTemperature, 0); err != nil {
		return 0, 0, err
	}
	rx, err := d.readData(2)
	if err != nil {
		return 0, 0, err
	}
	return int(int16(rx[0])), int(int16(rx[1])), nil
}

// ForceTemperature makes the controller use c °C instead of its sensor for
// waveform selection.
func (d *Dev) ForceTemperature(c int) error {
	return d.sendCommandArgs(CmdTemperature, 1, uint16(int16(c)))
}

// ReleaseTemperature returns to the sensor reading after ForceTemperature.
func (d *Dev) ReleaseTemperature() error {
	return d.sendCommandArgs(CmdTemperature, 2)
}

// SetBPPMode must be enabled before displaying 2bpp images, otherwise white
// pixels are not rendered correctly.
func (d *Dev) SetBPPMode(twoBPP bool) error {
	return d.sendCommandArgs(CmdBPPSettings, boolWord(twoBPP))
}

// checkArea requires every corner of r inside the panel. Rectangle.In is not
// used as it accepts empty rectangles anywhere.
func (d *Dev) checkArea(r image.Rectangle) error {
	p := d.panel
	if r.Min.X < p.Min.X || r.Min.Y < p.Min.Y || r.Max.X > p.Max.X || r.Max.Y > p.Max.Y ||
		r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
		return fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, d.panel)
	}
	return nil
}

// FillRect fills r with colour in both the image buffer and the panel.
func (d *Dev) FillRect(r image.Rectangle, mode DisplayMode, colour int) error {
	if err := d.checkArea(r); err != nil {
		return err
	}
	if colour < 0 || colour > 255 {
		return fmt.Errorf("%w: %d", ErrColour, colour)
	}
	d.frameValid = false
	args := append(rectArgs(r), 0x1100|uint16(mode), uint16(colour))
	return d.sendCommandArgs(CmdFillRect, args...)
}

func (d *Dev) checkLoad(info ImageInfo, r image.Rectangle) error {
	if info.Depth == BPP1 {
		return fmt.Errorf("%w: 1bpp image load", ErrNotSupported)
	}
	return d.checkArea(r)
}

// WritePackedPixels loads words, as returned by Pack, into the image buffer
// area r. Nothing changes on the panel until DisplayArea is called.
func (d *Dev) WritePackedPixels(info ImageInfo, r image.Rectangle, words []uint16) error {
	if err := d.checkLoad(info, r); err != nil {
		return err
	}
	d.frameValid = false
	return d.loadArea(info, r, func() error { return d.writeData(words...) })
}

// WriteRawPixels loads pre-formatted bytes into the image buffer area r,
// bypassing HRDY checks during the payload. data must be laid out as
// described by info.
func (d *Dev) WriteRawPixels(info ImageInfo, r image.Rectangle, data []byte) error {
	if err := d.checkLoad(info, r); err != nil {
		return err
	}
	d.frameValid = false
	return d.loadArea(info, r, func() error { return d.writeBytes(data) })
}

// WritePixels packs one pixel per byte and loads the result into the image
// buffer area r.
func (d *Dev) WritePixels(info ImageInfo, r image.Rectangle, pix []byte) error {
	d.frameValid = false
	return d.writePixels(info, r, pix)
}

func (d *Dev) writePixels(info ImageInfo, r image.Rectangle, pix []byte) error {
	if err := d.checkLoad(info, r); err != nil {
		return err
	}
	words, err := Pack(info, r, pix)
	if err != nil {
		return err
	}
	return d.loadArea(info, r, func() error { return d.writeData(words...) })
}

func (d *Dev) loadArea(info ImageInfo, r image.Rectangle, payload func() error) error {
	args := append([]uint16{info.Word()}, rectArgs(r)...)
	if err := d.sendCommandArgs(CmdLoadImageArea, args...); err != nil {
		return err
	}
	if err := payload(); err != nil {
		return err
	}
	return d.sendCommand(CmdLoadImageEnd)
}

// DisplayArea renders the image buffer area r to the panel. It waits for
// the LUT engines to finish the previous update first.
func (d *Dev) DisplayArea(r image.Rectangle, mode DisplayMode) error {
	if err := d.checkArea(r); err != nil {
		return err
	}
	if err := d.waitForDisplayReady(); err != nil {
		return err
	}
	return d.sendCommandArgs(CmdDisplayArea, append(rectArgs(r), uint16(mode))...)
}

// DisplayBufferArea renders area r from the image buffer at addr instead of
// the one set up by Init.
func (d *Dev) DisplayBufferArea(r image.Rectangle, mode DisplayMode, addr uint32) error {
	if err := d.checkArea(r); err != nil {
		return err
	}
	if err := d.waitForDisplayReady(); err != nil {
		return err
	}
	args := append(rectArgs(r), uint16(mode), uint16(addr), uint16(addr>>16))
	return d.sendCommandArgs(CmdDisplayBufArea, args...)
}

// rectArgs returns the x, y, width, height argument words.
func rectArgs(r image.Rectangle) []uint16 {
	return []uint16{uint16(r.Min.X), uint16(r.Min.Y), uint16(r.Dx()), uint16(r.Dy())}
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
