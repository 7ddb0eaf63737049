// Package gpioreg bit-bangs the register window spec.md describes directly
// over an FT2232H's GPIO lines, using periph.io's host/ftdi driver to reach
// the chip and conn/v3/gpio to drive individual pins. It is the real-
// hardware counterpart to reg.ByteWindow: where ByteWindow backs a
// reg.Interface with a plain byte slice for tests, GPIOWindow backs one with
// actual pins, so the same flash.Device code drives either.
//
// Grounded on gentam/gice's device.go, which finds the same FT2232H over
// the same vendor/product ID and opens the same ADBUS pins — but gice hands
// those pins to the FTDI's hardware MPSSE SPI engine via port.Connect,
// while the register window this package implements has no MOSI/MISO/SCK
// framing for an SPI engine to drive: every line is addressed individually
// as a GPIO, matching how flash/spi.go treats them as bits of one control
// word rather than a byte stream.
package gpioreg

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

// Control-register bit layout, mirrored from flash's unexported constants
// since both packages independently describe the same wire format spec.md
// fixes (spec.md §3); duplicating a handful of shift constants across a
// package boundary is cheaper than exporting flash's internal register
// layout for one caller.
const (
	bitD0 = 1 << 0
	bitD1 = 1 << 1
	bitD2 = 1 << 2
	bitD3 = 1 << 3

	bitOE0 = 1 << 8
	bitOE1 = 1 << 9
	bitOE2 = 1 << 10
	bitOE3 = 1 << 11

	bitCLK = 1 << 16
	bitCSN = 1 << 17
)

const (
	ftdiVendorID  = 0x0403
	ftdiProductID = 0x6010
)

// PinSet names the four data lines plus clock and chip-select this package
// drives on an FT232H's ADBUS. Output enable has no pin of its own: an OE
// bit in the register word is realized as a direction change (Out to drive,
// In to float) on the corresponding data pin, the same tri-state behavior
// the FPGA-side register abstracts over a literal bus.
type PinSet struct {
	D0, D1, D2, D3 gpio.PinIO
	CLK, CSN       gpio.PinIO
}

// GPIOWindow implements reg.MMIOWindow by packing/unpacking PinSet into the
// 32-bit control word flash/spi.go bit-bangs. Only Read32/Write32 are
// wired to real pins; the narrower widths are never issued against this
// register (spi.go speaks exclusively in 32-bit transactions) so they
// return zero/no-op rather than guess at a packing for them.
type GPIOWindow struct {
	pins PinSet
}

// NewGPIOWindow wraps pins as a reg.MMIOWindow. CLK and CSN are driven
// outputs from the start; the data pins start floating (input) so the
// flash, not the host, may drive them immediately after chip select.
func NewGPIOWindow(pins PinSet) (*GPIOWindow, error) {
	w := &GPIOWindow{pins: pins}
	for _, p := range []gpio.PinIO{pins.CLK, pins.CSN} {
		if p == nil {
			return nil, errors.New("gpioreg: control pin not set")
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("gpioreg: init pin %s: %w", p, err)
		}
	}
	for _, p := range []gpio.PinIO{pins.D0, pins.D1, pins.D2, pins.D3} {
		if p == nil {
			return nil, errors.New("gpioreg: data pin not set")
		}
		if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("gpioreg: float data pin %s: %w", p, err)
		}
	}
	return w, nil
}

func (w *GPIOWindow) Read8(off uintptr) uint8      { return 0 }
func (w *GPIOWindow) Write8(off uintptr, v uint8)  {}
func (w *GPIOWindow) Read16(off uintptr) uint16    { return 0 }
func (w *GPIOWindow) Write16(off uintptr, v uint16) {}
func (w *GPIOWindow) Read64(off uintptr) uint64    { return 0 }
func (w *GPIOWindow) Write64(off uintptr, v uint64) {}

// Read32 samples every line into the bit positions flash/spi.go expects:
// data lines as currently driven (by whichever side last took ownership),
// CLK/CSN as last commanded.
func (w *GPIOWindow) Read32(off uintptr) uint32 {
	var v uint32
	if w.pins.D0.Read() == gpio.High {
		v |= bitD0
	}
	if w.pins.D1.Read() == gpio.High {
		v |= bitD1
	}
	if w.pins.D2.Read() == gpio.High {
		v |= bitD2
	}
	if w.pins.D3.Read() == gpio.High {
		v |= bitD3
	}
	if w.pins.CLK.Read() == gpio.High {
		v |= bitCLK
	}
	if w.pins.CSN.Read() == gpio.High {
		v |= bitCSN
	}
	return v
}

// Write32 drives every output-enabled line to its bit in v, and floats
// (returns to input) any data line whose OE bit is clear so the flash chip
// may drive it back during a read phase.
func (w *GPIOWindow) Write32(off uintptr, v uint32) {
	w.driveOrFloat(w.pins.D0, v&bitOE0 != 0, v&bitD0 != 0)
	w.driveOrFloat(w.pins.D1, v&bitOE1 != 0, v&bitD1 != 0)
	w.driveOrFloat(w.pins.D2, v&bitOE2 != 0, v&bitD2 != 0)
	w.driveOrFloat(w.pins.D3, v&bitOE3 != 0, v&bitD3 != 0)
	w.pins.CLK.Out(level(v&bitCLK != 0))
	w.pins.CSN.Out(level(v&bitCSN != 0))
}

func (w *GPIOWindow) driveOrFloat(p gpio.PinIO, drive, high bool) {
	if !drive {
		p.In(gpio.PullNoChange, gpio.NoEdge)
		return
	}
	p.Out(level(high))
}

func level(high bool) gpio.Level {
	if high {
		return gpio.High
	}
	return gpio.Low
}

// OpenFT2232H finds the first attached FT2232H and returns its handle,
// using the same vendor/product ID and host.Init call as gice's device
// discovery.
func OpenFT2232H() (*ftdi.FT232H, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpioreg: host init: %w", err)
	}

	info := ftdi.Info{}
	for _, dev := range ftdi.All() {
		dev.Info(&info)
		if info.VenID != ftdiVendorID || info.DevID != ftdiProductID {
			continue
		}
		if ft, ok := dev.(*ftdi.FT232H); ok {
			return ft, nil
		}
	}
	return nil, errors.New("gpioreg: no FT2232H attached")
}

// DefaultPinSet maps the register's lines onto ADBUS0-5, the same bus
// gice's device.go pulls its chip-select/reset/done pins from.
func DefaultPinSet(ft *ftdi.FT232H) PinSet {
	return PinSet{
		D0: ft.D0, D1: ft.D1, D2: ft.D2, D3: ft.D3,
		CLK: ft.D4, CSN: ft.D5,
	}
}
