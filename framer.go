package it8951

import (
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// waitReady blocks until the controller raises HRDY. Opts.ReadyPoll sleeps
// between polls and Opts.ReadyTimeout bounds the wait.
func (d *Dev) waitReady() error {
	if d.hrdy.Read() == gpio.High {
		return nil
	}
	var deadline time.Time
	if d.opts.ReadyTimeout > 0 {
		deadline = time.Now().Add(d.opts.ReadyTimeout)
	}
	for d.hrdy.Read() == gpio.Low {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrReadyTimeout
		}
		if d.opts.ReadyPoll > 0 {
			time.Sleep(d.opts.ReadyPoll)
		}
	}
	return nil
}

// selected runs fn with chip select asserted. CS is released on every path.
func (d *Dev) selected(fn func() error) (err error) {
	if err := d.waitReady(); err != nil {
		return err
	}
	if err := d.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("it8951: failed to assert CS: %w", err)
	}
	defer func() {
		if e := d.cs.Out(gpio.High); e != nil && err == nil {
			err = fmt.Errorf("it8951: failed to release CS: %w", e)
		}
	}()
	return fn()
}

// transfer waits for HRDY and clocks one big-endian word. When read is set,
// the word clocked in at the same time is returned.
func (d *Dev) transfer(w uint16, read bool) (uint16, error) {
	if err := d.waitReady(); err != nil {
		return 0, err
	}
	var tx [2]byte
	binary.BigEndian.PutUint16(tx[:], w)
	if !read {
		return 0, d.c.Tx(tx[:], nil)
	}
	var rx [2]byte
	if err := d.c.Tx(tx[:], rx[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(rx[:]), nil
}

func (d *Dev) writeWords(words []uint16) error {
	for _, w := range words {
		if _, err := d.transfer(w, false); err != nil {
			return err
		}
	}
	return nil
}

// sendCommand emits [0x6000, cmd].
func (d *Dev) sendCommand(cmd Command) error {
	d.log.Debug("command", "cmd", fmt.Sprintf("%#04x", uint16(cmd)))
	return d.selected(func() error {
		return d.writeWords([]uint16{uint16(preambleCommand), uint16(cmd)})
	})
}

// writeData emits [0x0000, words...]. Nothing goes on the bus when words is
// empty.
func (d *Dev) writeData(words ...uint16) error {
	if len(words) == 0 {
		return nil
	}
	return d.selected(func() error {
		if _, err := d.transfer(uint16(preambleWrite), false); err != nil {
			return err
		}
		return d.writeWords(words)
	})
}

// writeBytes emits the write preamble followed by buf verbatim. HRDY is only
// checked before the preamble; buf must already be laid out for the image
// format announced to the controller.
func (d *Dev) writeBytes(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return d.selected(func() error {
		if _, err := d.transfer(uint16(preambleWrite), false); err != nil {
			return err
		}
		for len(buf) > 0 {
			n := len(buf)
			if d.maxTx > 0 && n > d.maxTx {
				n = d.maxTx
			}
			if err := d.c.Tx(buf[:n], nil); err != nil {
				return err
			}
			buf = buf[n:]
		}
		return nil
	})
}

// readData reads n words. The controller answers the preamble and one
// dummy word before the payload; both are dropped.
func (d *Dev) readData(n int) ([]uint16, error) {
	if n <= 0 {
		return nil, nil
	}
	rx := make([]uint16, n+2)
	err := d.selected(func() error {
		var err error
		if rx[0], err = d.transfer(uint16(preambleRead), true); err != nil {
			return err
		}
		for i := 1; i < len(rx); i++ {
			if rx[i], err = d.transfer(0, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rx[2:], nil
}

// sendCommandArgs sends cmd followed by its argument words.
func (d *Dev) sendCommandArgs(cmd Command, args ...uint16) error {
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	return d.writeData(args...)
}
