package it8951

import (
	"fmt"
	"time"
)

func (d *Dev) writeRegister(reg Register, v uint16) error {
	d.log.Debug("write register", "reg", fmt.Sprintf("%#04x", uint16(reg)), "value", fmt.Sprintf("%#04x", v))
	return d.sendCommandArgs(CmdRegWrite, uint16(reg), v)
}

func (d *Dev) readRegister(reg Register) (uint16, error) {
	if err := d.sendCommandArgs(CmdRegRead, uint16(reg)); err != nil {
		return 0, err
	}
	rx, err := d.readData(1)
	if err != nil {
		return 0, err
	}
	d.log.Debug("read register", "reg", fmt.Sprintf("%#04x", uint16(reg)), "value", fmt.Sprintf("%#04x", rx[0]))
	return rx[0], nil
}

// ReadRegister returns the value of a controller register.
func (d *Dev) ReadRegister(reg Register) (uint16, error) {
	return d.readRegister(reg)
}

// WriteRegister sets a controller register.
func (d *Dev) WriteRegister(reg Register, v uint16) error {
	return d.writeRegister(reg, v)
}

// setImageBufferBase programs the 26-bit frame buffer base address, low half
// first.
func (d *Dev) setImageBufferBase(addr uint32) error {
	if addr&0x3FFFFFF != addr {
		return fmt.Errorf("%w: %#x", ErrBaseAddress, addr)
	}
	if err := d.writeRegister(LISAR, uint16(addr)); err != nil {
		return err
	}
	return d.writeRegister(LISAR+2, uint16(addr>>16))
}

func (d *Dev) setPackedMode(enable bool) error {
	var v uint16
	if enable {
		v = 1
	}
	return d.writeRegister(I80CPCR, v)
}

// waitForDisplayReady polls LUTAFSR until all LUT engines are idle.
func (d *Dev) waitForDisplayReady() error {
	var deadline time.Time
	if d.opts.DisplayTimeout > 0 {
		deadline = time.Now().Add(d.opts.DisplayTimeout)
	}
	for {
		v, err := d.readRegister(LUTAFSR)
		if err != nil {
			return err
		}
		if v == 0 {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrDisplayTimeout
		}
		if d.opts.DisplayPoll > 0 {
			time.Sleep(d.opts.DisplayPoll)
		}
	}
}
