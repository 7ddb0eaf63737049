package flash

import "fmt"

// bpiDriver is the BPI-variant flash.Driver: the control register carries
// only CE#/OE#/WE#/byte-lane strobes, while address and data are driven
// through dedicated registers rather than bit-banged. spec.md marks BPI
// read/write/erase out of scope ("parallel-bus timing is not specified"),
// so this driver negotiates geometry on Init and reports a ConfigError
// wrapping ErrUnsupportedOp for every data-moving operation, matching flash.c's flash_driver table having
// a populated bpi_ops.init but stubbed data-path entries.
type bpiDriver struct{}

func (bpiDriver) Release(fdev *Device) {}

// Init sets conservative geometry defaults; there is no BPI ID-read
// sequence to derive them from, since spec.md leaves the BPI status/ID
// protocol unspecified.
func (bpiDriver) Init(fdev *Device) error {
	fdev.Protocol = ProtoSTR
	fdev.BulkProtocol = ProtoSTR
	fdev.WriteBufferSize = spiPageSize
	fdev.EraseBlockSize = spiSubsectorSize
	fdev.EraseRegionCount = 0
	return nil
}

func (bpiDriver) Read(fdev *Device, addr, length uintptr, dest []byte) error {
	return newErr("read", ConfigError, fmt.Errorf("%w: BPI read is not implemented", ErrUnsupportedOp))
}

func (bpiDriver) Write(fdev *Device, addr uintptr, src []byte) error {
	return newErr("write", ConfigError, fmt.Errorf("%w: BPI write is not implemented", ErrUnsupportedOp))
}

func (bpiDriver) Erase(fdev *Device, addr, length uintptr) error {
	return newErr("erase", ConfigError, fmt.Errorf("%w: BPI erase is not implemented", ErrUnsupportedOp))
}

var _ Driver = bpiDriver{}
