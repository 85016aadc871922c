package it8951

import "errors"

var (
	// ErrDeviceInfoSize is returned when the GET_DEV_INFO answer is not 20 words.
	ErrDeviceInfoSize = errors.New("it8951: device info must be 20 words (40 bytes)")
	// ErrNoCommunication is returned when the chip reports a zero sized panel.
	ErrNoCommunication = errors.New("it8951: failed to establish communication with the controller")
	// ErrOutOfBounds is returned when an area is not fully inside the panel.
	ErrOutOfBounds = errors.New("it8951: area outside the display's limits")
	// ErrColour is returned for a colour above the depth's maximum.
	ErrColour = errors.New("it8951: colour exceeds the maximum for the pixel depth")
	// ErrVCOM is returned for a VCOM that is not negative or below -65535 mV.
	ErrVCOM = errors.New("it8951: VCOM must be negative and at least -65535 mV")
	// ErrVCOMVerify is returned when Init reads back another VCOM than it set.
	ErrVCOMVerify = errors.New("it8951: VCOM read back does not match")
	// ErrNotSupported is returned for pixel formats the driver cannot handle.
	ErrNotSupported = errors.New("it8951: not supported")
	// ErrPixelCount is returned when a pixel buffer does not match its area.
	ErrPixelCount = errors.New("it8951: pixel count does not match the area")
	// ErrBaseAddress is returned for an image buffer address above 26 bits.
	ErrBaseAddress = errors.New("it8951: image buffer base address wider than 26 bits")
	// ErrReadyTimeout is returned when HRDY stays low longer than Opts.ReadyTimeout.
	ErrReadyTimeout = errors.New("it8951: timed out waiting for HRDY")
	// ErrDisplayTimeout is returned when the LUT engines stay busy longer than
	// Opts.DisplayTimeout.
	ErrDisplayTimeout = errors.New("it8951: timed out waiting for the display engine")
)
