package it8951

import (
	"fmt"
	"image"
	"strings"
)

// deviceInfoWords is the length of the GET_DEV_INFO answer.
const deviceInfoWords = 20

// DeviceInfo is the panel description reported by the controller.
type DeviceInfo struct {
	Width           int
	Height          int
	ImageBufferAddr uint32 // Frame buffer base address
	FirmwareVersion string
	LUTVersion      string
}

// Bounds returns the addressable panel area.
func (i DeviceInfo) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Width, i.Height)
}

func (i DeviceInfo) String() string {
	return fmt.Sprintf("Panel width: %d\n"+
		"Panel height: %d\n"+
		"Image buffer address: %#x\n"+
		"Firmware version: %s\n"+
		"LUT version: %s",
		i.Width, i.Height, i.ImageBufferAddr, i.FirmwareVersion, i.LUTVersion)
}

// decodeDeviceInfo decodes the 20 word GET_DEV_INFO answer:
//
//	word 0     width
//	word 1     height
//	word 2..3  image buffer address, low half first
//	word 4..11 firmware version, two characters per word, high byte first
//	word 12..19 LUT version, same encoding
func decodeDeviceInfo(words []uint16) (DeviceInfo, error) {
	if len(words) != deviceInfoWords {
		return DeviceInfo{}, fmt.Errorf("%w: got %d words", ErrDeviceInfoSize, len(words))
	}
	return DeviceInfo{
		Width:           int(words[0]),
		Height:          int(words[1]),
		ImageBufferAddr: uint32(words[3])<<16 | uint32(words[2]),
		FirmwareVersion: wordsToString(words[4:12]),
		LUTVersion:      wordsToString(words[12:20]),
	}, nil
}

// wordsToString unpacks two ASCII characters per word and drops the NUL
// padding.
func wordsToString(words []uint16) string {
	b := make([]byte, 0, 2*len(words))
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	return strings.TrimRight(string(b), "\x00")
}

// GetDeviceInfo queries the controller. It does not update the information
// cached by Init.
func (d *Dev) GetDeviceInfo() (DeviceInfo, error) {
	if err := d.sendCommand(CmdGetDevInfo); err != nil {
		return DeviceInfo{}, err
	}
	rx, err := d.readData(deviceInfoWords)
	if err != nil {
		return DeviceInfo{}, err
	}
	return decodeDeviceInfo(rx)
}
