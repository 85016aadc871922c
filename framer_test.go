package it8951

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// csConn fails any Tx issued while chip select is released.
type csConn struct {
	conn.Conn
	cs *gpiotest.Pin
	t  *testing.T
}

func (c *csConn) Tx(w, r []byte) error {
	if c.cs.Read() != gpio.Low {
		c.t.Errorf("Tx(%#v) with CS released", w)
	}
	return c.Conn.Tx(w, r)
}

func newFramerDev(t *testing.T, ops []conntest.IO) (*Dev, *conntest.Playback, *gpiotest.Pin, *gpiotest.Pin) {
	pb := &conntest.Playback{Ops: ops, D: conn.Full, DontPanic: true}
	cs := &gpiotest.Pin{N: "CS", L: gpio.High}
	hrdy := &gpiotest.Pin{N: "HRDY", L: gpio.High}
	d := &Dev{
		c:    &csConn{Conn: pb, cs: cs, t: t},
		cs:   cs,
		hrdy: hrdy,
		log:  slog.New(slog.DiscardHandler),
	}
	return d, pb, cs, hrdy
}

func writes(words ...uint16) []conntest.IO {
	ops := make([]conntest.IO, 0, len(words))
	for _, w := range words {
		ops = append(ops, conntest.IO{W: []byte{byte(w >> 8), byte(w)}})
	}
	return ops
}

func TestSendCommand(t *testing.T) {
	d, pb, cs, _ := newFramerDev(t, writes(0x6000, 0x0302))
	if err := d.sendCommand(CmdGetDevInfo); err != nil {
		t.Fatalf("sendCommand() error = %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
	if cs.L != gpio.High {
		t.Error("CS should be released after the transaction")
	}
}

func TestWriteData(t *testing.T) {
	tests := []struct {
		name  string
		words []uint16
		ops   []conntest.IO
	}{
		{"empty", nil, nil},
		{"single", []uint16{0x1224}, writes(0x0000, 0x1224)},
		{"several", []uint16{0x0208, 0x0036, 0xFFFF}, writes(0x0000, 0x0208, 0x0036, 0xFFFF)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pb, cs, _ := newFramerDev(t, tt.ops)
			if err := d.writeData(tt.words...); err != nil {
				t.Fatalf("writeData() error = %v", err)
			}
			if err := pb.Close(); err != nil {
				t.Error(err)
			}
			if cs.L != gpio.High {
				t.Error("CS should be released after the transaction")
			}
		})
	}
}

func TestReadData(t *testing.T) {
	ops := []conntest.IO{
		{W: []byte{0x10, 0x00}, R: []byte{0xDE, 0xAD}},
		{W: []byte{0x00, 0x00}, R: []byte{0xBE, 0xEF}},
		{W: []byte{0x00, 0x00}, R: []byte{0x12, 0x34}},
		{W: []byte{0x00, 0x00}, R: []byte{0x56, 0x78}},
	}
	d, pb, _, _ := newFramerDev(t, ops)
	got, err := d.readData(2)
	if err != nil {
		t.Fatalf("readData() error = %v", err)
	}
	if len(got) != 2 || got[0] != 0x1234 || got[1] != 0x5678 {
		t.Errorf("readData() = %#04x, want [0x1234 0x5678]", got)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadDataZero(t *testing.T) {
	d, _, cs, _ := newFramerDev(t, nil)
	got, err := d.readData(0)
	if err != nil || len(got) != 0 {
		t.Errorf("readData(0) = %v, %v, want empty", got, err)
	}
	if cs.L != gpio.High {
		t.Error("readData(0) should not touch CS")
	}
}

func TestWriteBytesChunks(t *testing.T) {
	ops := []conntest.IO{
		{W: []byte{0x00, 0x00}},
		{W: []byte{1, 2, 3}},
		{W: []byte{4, 5, 6}},
		{W: []byte{7}},
	}
	d, pb, cs, _ := newFramerDev(t, ops)
	d.maxTx = 3
	if err := d.writeBytes([]byte{1, 2, 3, 4, 5, 6, 7}); err != nil {
		t.Fatalf("writeBytes() error = %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
	if cs.L != gpio.High {
		t.Error("CS should be released after the transaction")
	}
}

func TestReadyTimeout(t *testing.T) {
	d, pb, cs, hrdy := newFramerDev(t, nil)
	hrdy.L = gpio.Low
	d.opts.ReadyPoll = time.Millisecond
	d.opts.ReadyTimeout = 5 * time.Millisecond
	if err := d.sendCommand(CmdSysRun); !errors.Is(err, ErrReadyTimeout) {
		t.Errorf("sendCommand() error = %v, want %v", err, ErrReadyTimeout)
	}
	if pb.Count != 0 {
		t.Errorf("%d transfers while HRDY low, want 0", pb.Count)
	}
	if cs.L != gpio.High {
		t.Error("CS should stay released")
	}
}

func TestTxErrorReleasesCS(t *testing.T) {
	// The playback expects a different command, so the second Tx fails.
	d, _, cs, _ := newFramerDev(t, writes(0x6000, 0x0001))
	if err := d.sendCommand(CmdSleep); err == nil {
		t.Fatal("sendCommand() should fail on an unexpected write")
	}
	if cs.L != gpio.High {
		t.Error("CS should be released after a failed transaction")
	}
}

func TestRegisterAccess(t *testing.T) {
	var ops []conntest.IO
	ops = append(ops, writes(0x6000, 0x0011, 0x0000, 0x0208, 0x0000)...)
	ops = append(ops, writes(0x6000, 0x0011, 0x0000, 0x020A, 0x0036)...)
	ops = append(ops, writes(0x6000, 0x0010, 0x0000, 0x1224)...)
	ops = append(ops,
		conntest.IO{W: []byte{0x10, 0x00}, R: []byte{0, 0}},
		conntest.IO{W: []byte{0, 0}, R: []byte{0, 0}},
		conntest.IO{W: []byte{0, 0}, R: []byte{0x00, 0x01}},
	)
	d, pb, _, _ := newFramerDev(t, ops)
	if err := d.setImageBufferBase(0x00360000); err != nil {
		t.Fatalf("setImageBufferBase() error = %v", err)
	}
	v, err := d.ReadRegister(LUTAFSR)
	if err != nil {
		t.Fatalf("ReadRegister() error = %v", err)
	}
	if v != 1 {
		t.Errorf("ReadRegister(LUTAFSR) = %d, want 1", v)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestImageBufferBaseTooWide(t *testing.T) {
	d, _, _, _ := newFramerDev(t, nil)
	if err := d.setImageBufferBase(1 << 26); !errors.Is(err, ErrBaseAddress) {
		t.Errorf("setImageBufferBase() error = %v, want %v", err, ErrBaseAddress)
	}
}
