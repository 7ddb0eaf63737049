// Package flash translates read/write/erase requests into vendor-aware NOR
// flash command sequences, issued one register transaction at a time
// through a reg.Interface view onto an FPGA's bit-banged SPI (or parallel
// BPI) control register.
package flash

import (
	"sync/atomic"

	"github.com/gentam/pyriteflash/reg"
)

// DataWidth is the number of data lines the driver uses: 1 (standard SPI)
// or 4 (quad).
type DataWidth int

const (
	DataWidth1 DataWidth = 1
	DataWidth4 DataWidth = 4
)

// Protocol is the bits-per-clock/edge discipline in force for a given phase
// of a transaction.
type Protocol int

const (
	ProtoSTR Protocol = iota
	ProtoDTR
	ProtoDualSTR
	ProtoDualDTR
	ProtoQuadSTR
	ProtoQuadDTR
)

func (p Protocol) String() string {
	switch p {
	case ProtoSTR:
		return "STR"
	case ProtoDTR:
		return "DTR"
	case ProtoDualSTR:
		return "DUAL-STR"
	case ProtoDualDTR:
		return "DUAL-DTR"
	case ProtoQuadSTR:
		return "QUAD-STR"
	case ProtoQuadDTR:
		return "QUAD-DTR"
	default:
		return "unknown"
	}
}

// EraseRegionInfo models one erase-region table entry: a run of
// block-count identically sized erase blocks, used to describe top/bottom
// boot-block parts that mix block sizes across the address space.
type EraseRegionInfo struct {
	BlockCount  int
	BlockSize   int
	RegionStart uintptr
	RegionEnd   uintptr
}

// eraseRegions is the fixed capacity of a Device's erase-region table: up
// to two regions per device, to model top/bottom boot-block parts.
const eraseRegions = 2

// Driver is the small vtable every flash variant implements: the Go
// rendering of the C flash_driver function-pointer table.
type Driver interface {
	Init(fdev *Device) error
	Release(fdev *Device)
	Read(fdev *Device, addr, length uintptr, dest []byte) error
	Write(fdev *Device, addr uintptr, src []byte) error
	Erase(fdev *Device, addr, length uintptr) error
}

// Device holds the state a flash driver needs: the register view it does
// not own, the offsets of the registers it bit-bangs or drives directly,
// negotiated geometry and protocol, and the driver implementing the active
// variant (SPI or BPI).
type Device struct {
	driver Driver

	reg *reg.Interface

	CtrlRegOffset uintptr
	AddrRegOffset uintptr
	DataRegOffset uintptr

	Size            uintptr
	DataWidth       DataWidth
	WriteBufferSize int
	EraseBlockSize  int

	Protocol        Protocol
	BulkProtocol    Protocol
	ReadDummyCycles int

	EraseRegionCount int
	EraseRegion      [eraseRegions]EraseRegionInfo

	released atomic.Bool
}

// OpenSPI opens a SPI-variant flash device: a single control register at
// ctrlRegOffset within regs carries every data/OE/clock/chip-select line.
func OpenSPI(dataWidth DataWidth, regs *reg.Interface, ctrlRegOffset uintptr) (*Device, error) {
	if regs == nil {
		return nil, newErr("open_spi", ConfigError, nil)
	}
	fdev := &Device{
		driver:        spiDriver{},
		DataWidth:     dataWidth,
		reg:           regs,
		CtrlRegOffset: ctrlRegOffset,
	}
	if err := fdev.driver.Init(fdev); err != nil {
		fdev.driver.Release(fdev)
		return nil, err
	}
	return fdev, nil
}

// OpenBPI opens a BPI-variant flash device, which drives an address
// register and a data register directly in addition to the control
// register.
func OpenBPI(dataWidth DataWidth, regs *reg.Interface, ctrlRegOffset, addrRegOffset, dataRegOffset uintptr) (*Device, error) {
	if regs == nil {
		return nil, newErr("open_bpi", ConfigError, nil)
	}
	fdev := &Device{
		driver:        bpiDriver{},
		DataWidth:     dataWidth,
		reg:           regs,
		CtrlRegOffset: ctrlRegOffset,
		AddrRegOffset: addrRegOffset,
		DataRegOffset: dataRegOffset,
	}
	if err := fdev.driver.Init(fdev); err != nil {
		fdev.driver.Release(fdev)
		return nil, err
	}
	return fdev, nil
}

// Close releases fdev. It does not close the borrowed register view. Close
// is idempotent.
func (fdev *Device) Close() {
	if fdev == nil || !fdev.released.CompareAndSwap(false, true) {
		return
	}
	fdev.driver.Release(fdev)
}

// Read reads length bytes starting at addr into dest.
func (fdev *Device) Read(addr, length uintptr, dest []byte) error {
	if fdev == nil {
		return newErr("read", ConfigError, nil)
	}
	return fdev.driver.Read(fdev, addr, length, dest)
}

// Write programs src starting at addr.
func (fdev *Device) Write(addr uintptr, src []byte) error {
	if fdev == nil {
		return newErr("write", ConfigError, nil)
	}
	return fdev.driver.Write(fdev, addr, src)
}

// Erase erases length bytes starting at addr.
func (fdev *Device) Erase(addr, length uintptr) error {
	if fdev == nil {
		return newErr("erase", ConfigError, nil)
	}
	return fdev.driver.Erase(fdev, addr, length)
}
