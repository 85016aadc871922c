package it8951sim

import (
	"image"
	"testing"

	"periph.io/x/conn/v3/gpio"
)

// tx runs one transaction of words and returns the words clocked out.
func tx(t *testing.T, c *Chip, read bool, words ...uint16) []uint16 {
	t.Helper()
	if err := c.CS().Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	defer c.CS().Out(gpio.High)
	w := make([]byte, 0, 2*len(words))
	for _, v := range words {
		w = append(w, byte(v>>8), byte(v))
	}
	var r []byte
	if read {
		r = make([]byte, len(w))
	}
	if err := c.Tx(w, r); err != nil {
		t.Fatalf("Tx() error = %v", err)
	}
	out := make([]uint16, len(r)/2)
	for i := range out {
		out[i] = uint16(r[2*i])<<8 | uint16(r[2*i+1])
	}
	return out
}

func TestDeviceInfo(t *testing.T) {
	c := New(nil)
	tx(t, c, false, preCommand, cmdGetDevInfo)
	words := make([]uint16, 22)
	words[0] = preRead
	// got[0] answers the preamble, got[1] is the dummy word.
	got := tx(t, c, true, words...)
	if got[2] != 1872 || got[3] != 1404 {
		t.Errorf("size = %dx%d, want 1872x1404", got[2], got[3])
	}
	if addr := uint32(got[5])<<16 | uint32(got[4]); addr != defaultBaseAddr {
		t.Errorf("address = %#x, want %#x", addr, defaultBaseAddr)
	}
	if got[6] != 0x5357 {
		t.Errorf("firmware first word = %#04x, want 0x5357", got[6])
	}
}

func TestReadPreamble(t *testing.T) {
	c := New(nil)
	tx(t, c, false, preCommand, cmdVCOM)
	tx(t, c, false, preWrite, 0)
	got := tx(t, c, true, preRead, 0, 0)
	if got[1] != 0 || got[2] != defaultVCOM {
		t.Errorf("read = %#04x, want dummy then %#04x", got, defaultVCOM)
	}
}

func TestTxRequiresCS(t *testing.T) {
	c := New(nil)
	if err := c.Tx([]byte{0x60, 0x00}, nil); err == nil {
		t.Error("Tx() with CS released should fail")
	}
}

func TestTxLimit(t *testing.T) {
	o := DefaultOpts
	o.MaxTx = 4
	c := New(&o)
	c.CS().Out(gpio.Low)
	defer c.CS().Out(gpio.High)
	if err := c.Tx(make([]byte, 6), nil); err == nil {
		t.Error("Tx() above MaxTx should fail")
	}
	if got := c.MaxTxSize(); got != 4 {
		t.Errorf("MaxTxSize() = %d, want 4", got)
	}
}

func TestSplitWords(t *testing.T) {
	c := New(nil)
	c.CS().Out(gpio.Low)
	for _, b := range []byte{0x60, 0x00, 0x00, 0x11} {
		if err := c.Tx([]byte{b}, nil); err != nil {
			t.Fatal(err)
		}
	}
	c.CS().Out(gpio.High)
	tx(t, c, false, preWrite, regI80CPCR, 1)
	if got := c.Register(regI80CPCR); got != 1 {
		t.Errorf("register = %d, want 1", got)
	}
	if got := c.Selects(); got != 2 {
		t.Errorf("Selects() = %d, want 2", got)
	}
}

func TestLoadBigEndian4BPP(t *testing.T) {
	o := DefaultOpts
	o.Width, o.Height = 8, 2
	c := New(&o)
	tx(t, c, false, preCommand, cmdLoadArea)
	// Big-endian 4bpp, area (1,0)-(3,1).
	tx(t, c, false, preWrite, 1<<8|2<<4, 1, 0, 2, 1)
	tx(t, c, false, preWrite, 0x0AB0)
	tx(t, c, false, preCommand, cmdLoadEnd)
	img := c.Image(4)
	if got := img.Pixels(image.Rect(0, 0, 4, 1)); got[0] != 0 || got[1] != 0xA || got[2] != 0xB || got[3] != 0 {
		t.Errorf("pixels = %v, want [0 10 11 0]", got)
	}
	if c.LoadedWords() != 1 {
		t.Errorf("LoadedWords() = %d, want 1", c.LoadedWords())
	}
}

func TestBusyPolls(t *testing.T) {
	o := DefaultOpts
	o.BusyPolls = 2
	c := New(&o)
	tx(t, c, false, preCommand, cmdDisplayArea)
	tx(t, c, false, preWrite, 0, 0, 8, 8, 2)
	var states []uint16
	for i := 0; i < 3; i++ {
		tx(t, c, false, preCommand, cmdRegRead)
		tx(t, c, false, preWrite, regLUTAFSR)
		states = append(states, tx(t, c, true, preRead, 0, 0)[2])
	}
	if states[0] != lutStatusBusy || states[1] != lutStatusBusy || states[2] != 0 {
		t.Errorf("LUTAFSR = %v, want busy twice then idle", states)
	}
	if u := c.Updates(); len(u) != 1 || u[0].Rect != image.Rect(0, 0, 8, 8) {
		t.Errorf("Updates() = %+v", u)
	}
}
