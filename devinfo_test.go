package it8951

import (
	"errors"
	"image"
	"testing"
)

func infoWords() []uint16 {
	w := []uint16{1072, 1448, 0x0000, 0x0036}
	// "SWv_0.1.1" and "M841_TFA2812", NUL padded to 16 bytes.
	w = append(w, 0x5357, 0x765F, 0x302E, 0x312E, 0x3100, 0, 0, 0)
	return append(w, 0x4D38, 0x3431, 0x5F54, 0x4641, 0x3238, 0x3132, 0, 0)
}

func TestDecodeDeviceInfo(t *testing.T) {
	got, err := decodeDeviceInfo(infoWords())
	if err != nil {
		t.Fatalf("decodeDeviceInfo() error = %v", err)
	}
	want := DeviceInfo{
		Width:           1072,
		Height:          1448,
		ImageBufferAddr: 0x00360000,
		FirmwareVersion: "SWv_0.1.1",
		LUTVersion:      "M841_TFA2812",
	}
	if got != want {
		t.Errorf("decodeDeviceInfo() = %+v, want %+v", got, want)
	}
	if b := got.Bounds(); b != image.Rect(0, 0, 1072, 1448) {
		t.Errorf("Bounds() = %v", b)
	}
}

func TestDecodeDeviceInfoSize(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"19 words", 19},
		{"21 words", 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := append(infoWords(), 0)[:tt.n]
			if _, err := decodeDeviceInfo(words); !errors.Is(err, ErrDeviceInfoSize) {
				t.Errorf("decodeDeviceInfo(%d words) error = %v, want %v", tt.n, err, ErrDeviceInfoSize)
			}
		})
	}
}

func TestWordsToString(t *testing.T) {
	tests := []struct {
		words []uint16
		want  string
	}{
		{[]uint16{0x4142, 0x4344}, "ABCD"},
		{[]uint16{0x4142, 0x4300}, "ABC"},
		{[]uint16{0, 0}, ""},
	}
	for _, tt := range tests {
		if got := wordsToString(tt.words); got != tt.want {
			t.Errorf("wordsToString(%#04x) = %q, want %q", tt.words, got, tt.want)
		}
	}
}
