package flash

import (
	"fmt"

	"github.com/gentam/pyriteflash/internal/bitlog"
)

// JEDEC manufacturer IDs this core recognizes (spec.md §4.4.2).
const (
	mfrMicron   = 0x20
	mfrMacronix = 0xC2
)

func vendorName(mfrID byte) string {
	switch mfrID {
	case mfrMicron:
		return "Micron"
	case mfrMacronix:
		return "Macronix"
	default:
		return "unknown"
	}
}

// spiVendorIdentify dumps the vendor-specific diagnostic registers the
// original init routine reads, and negotiates quad mode when the device was
// opened with DataWidth4. Grounded on spi_flash_init's vendor switch in
// flash_spi.c (original_source), which reads the same registers for the
// same two vendors before deciding whether to enable quad I/O.
func (fdev *Device) spiVendorIdentify(mfrID byte) error {
	switch mfrID {
	case mfrMicron:
		return fdev.spiIdentifyMicron()
	case mfrMacronix:
		return fdev.spiIdentifyMacronix()
	default:
		return fmt.Errorf("no identification routine for vendor id 0x%02x", mfrID)
	}
}

func (fdev *Device) spiIdentifyMicron() error {
	flagSR, err := fdev.spiReadFlagStatusReg()
	if err != nil {
		return err
	}
	nvCR, err := fdev.spiReadNVConfigReg()
	if err != nil {
		return err
	}
	vCR, err := fdev.spiReadVolatileConfigReg()
	if err != nil {
		return err
	}
	evCR, err := fdev.spiReadEVConfigReg()
	if err != nil {
		return err
	}
	freeze, err := fdev.spiReadGlobalFreezeBit()
	if err != nil {
		return err
	}
	secProt, err := fdev.spiReadSectorProtectionReg()
	if err != nil {
		return err
	}

	bitlog.Info("micron registers",
		"flag_status", fmt.Sprintf("0x%02x", flagSR),
		"nv_config", fmt.Sprintf("0x%04x", nvCR),
		"v_config", fmt.Sprintf("0x%02x", vCR),
		"ev_config", fmt.Sprintf("0x%02x", evCR),
		"global_freeze", fmt.Sprintf("0x%02x", freeze),
		"sector_protection", fmt.Sprintf("0x%04x", secProt))

	if fdev.DataWidth == DataWidth4 {
		if err := fdev.spiWriteVolatileConfigReg(0xFB); err != nil {
			return err
		}
		fdev.BulkProtocol = ProtoQuadSTR
		fdev.ReadDummyCycles = 10
	}
	return nil
}

func (fdev *Device) spiIdentifyMacronix() error {
	cfg, err := fdev.spiMxicReadCfgReg()
	if err != nil {
		return err
	}
	secProt, err := fdev.spiReadSectorProtectionReg()
	if err != nil {
		return err
	}
	security, err := fdev.spiMxicReadSecurityReg()
	if err != nil {
		return err
	}

	bitlog.Info("macronix registers",
		"config", fmt.Sprintf("0x%02x", cfg),
		"sector_protection", fmt.Sprintf("0x%04x", secProt),
		"security", fmt.Sprintf("0x%02x", security))

	if fdev.DataWidth == DataWidth4 {
		if err := fdev.spiMxicWriteStatusCfgReg(0x40, 0x07); err != nil {
			return err
		}
		fdev.BulkProtocol = ProtoQuadSTR
		fdev.ReadDummyCycles = 6
	}
	return nil
}

// --- Single-byte/word register read/write helpers, STR only. ---
//
// These cover the remainder of the original's command set (flag/NV/V/EV
// config registers, sector protection, global freeze, Macronix config and
// security registers, lock bits, and password unlock) that the core
// read/write/erase flows don't themselves exercise. The register helpers
// are unexported and used by Init's vendor diagnostics above.
// ReadNVLockBits and UnlockPassword are exported for callers and are not
// called by Init.

func (fdev *Device) spiReadFlagStatusReg() (byte, error) {
	if err := fdev.spiWriteByte(cmdReadFlagStatusReg, ProtoSTR); err != nil {
		return 0, err
	}
	val, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return val, fdev.spiDeselect()
}

func (fdev *Device) spiReadNVConfigReg() (uint16, error) {
	if err := fdev.spiWriteByte(cmdReadNVConfigReg, ProtoSTR); err != nil {
		return 0, err
	}
	lo, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	hi, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, fdev.spiDeselect()
}

func (fdev *Device) spiReadVolatileConfigReg() (byte, error) {
	if err := fdev.spiWriteByte(cmdReadVConfigReg, ProtoSTR); err != nil {
		return 0, err
	}
	val, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return val, fdev.spiDeselect()
}

// spiWriteVolatileConfigReg sets the volatile configuration register; Init
// uses it to switch a Micron part to quad I/O.
func (fdev *Device) spiWriteVolatileConfigReg(val byte) error {
	if err := fdev.spiWriteByte(cmdWriteVConfigReg, ProtoSTR); err != nil {
		return err
	}
	if err := fdev.spiWriteByte(val, ProtoSTR); err != nil {
		return err
	}
	return fdev.spiDeselect()
}

func (fdev *Device) spiReadEVConfigReg() (byte, error) {
	if err := fdev.spiWriteByte(cmdReadEVConfigReg, ProtoSTR); err != nil {
		return 0, err
	}
	val, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return val, fdev.spiDeselect()
}

func (fdev *Device) spiReadGlobalFreezeBit() (byte, error) {
	if err := fdev.spiWriteByte(cmdReadGlobalFreezeBit, ProtoSTR); err != nil {
		return 0, err
	}
	val, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return val, fdev.spiDeselect()
}

func (fdev *Device) spiReadSectorProtectionReg() (uint16, error) {
	if err := fdev.spiWriteByte(cmdReadSectorProtection, ProtoSTR); err != nil {
		return 0, err
	}
	lo, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	hi, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, fdev.spiDeselect()
}

func (fdev *Device) spiMxicReadCfgReg() (byte, error) {
	if err := fdev.spiWriteByte(mxicCmdRDCR, ProtoSTR); err != nil {
		return 0, err
	}
	val, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return val, fdev.spiDeselect()
}

func (fdev *Device) spiMxicReadSecurityReg() (byte, error) {
	if err := fdev.spiWriteByte(mxicCmdRDSCUR, ProtoSTR); err != nil {
		return 0, err
	}
	val, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return val, fdev.spiDeselect()
}

func (fdev *Device) spiMxicWriteStatusCfgReg(status, cfg byte) error {
	if err := fdev.spiWriteByte(cmdWriteStatusReg, ProtoSTR); err != nil {
		return err
	}
	if err := fdev.spiWriteByte(status, ProtoSTR); err != nil {
		return err
	}
	if err := fdev.spiWriteByte(cfg, ProtoSTR); err != nil {
		return err
	}
	return fdev.spiDeselect()
}

// ReadNVLockBits reads the nonvolatile lock bits for addr (4-byte
// addressed, per the original's spi_flash_read_nv_lock_bits).
func (fdev *Device) ReadNVLockBits(addr uintptr) (byte, error) {
	if err := fdev.spiWriteByte(cmdReadNVLockBits, ProtoSTR); err != nil {
		return 0, err
	}
	if err := fdev.spiWriteAddr4B(addr, ProtoSTR); err != nil {
		return 0, err
	}
	val, err := fdev.spiReadByte(ProtoSTR)
	if err != nil {
		return 0, err
	}
	return val, fdev.spiDeselect()
}

// UnlockPassword sends an 8-byte password to unlock a password-protected
// part.
func (fdev *Device) UnlockPassword(password [8]byte) error {
	if err := fdev.spiWriteByte(cmdUnlockPassword, ProtoSTR); err != nil {
		return err
	}
	for _, b := range password {
		if err := fdev.spiWriteByte(b, ProtoSTR); err != nil {
			return err
		}
	}
	return fdev.spiDeselect()
}
