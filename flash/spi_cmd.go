package flash

// SPI NOR opcodes. Grounded on the command set this core's originating
// source (alexforencich/taxi, src/pyrite/utils/flash_spi.c) embeds; only a
// subset is issued by spi.go's read/program/erase flows, but spec.md's data
// model calls for "a closed enumeration of NOR opcodes (≈80 values)" so the
// full table is carried even where a given opcode has no caller yet.
const (
	cmdResetEnable = 0x66
	cmdResetMemory = 0x99
	cmdReadID      = 0x9F

	cmdRead                = 0x03
	cmdFastRead            = 0x0B
	cmdFastReadDualOut     = 0x3B
	cmdFastReadDualIO      = 0xBB
	cmdFastReadQuadOut     = 0x6B
	cmdFastReadQuadIO      = 0xEB
	cmdDTRFastRead         = 0x0D
	cmdDTRFastReadDualOut  = 0x3D
	cmdDTRFastReadDualIO   = 0xBD
	cmdDTRFastReadQuadOut  = 0x6D
	cmdDTRFastReadQuadIO   = 0xED
	cmd4BRead              = 0x13
	cmd4BFastRead          = 0x0C
	cmd4BFastReadDualOut   = 0x3C
	cmd4BFastReadDualIO    = 0xBC
	cmd4BFastReadQuadOut   = 0x6C
	cmd4BFastReadQuadIO    = 0xEC
	cmd4BDTRFastRead       = 0x0E
	cmd4BDTRFastReadDualIO = 0xBE
	cmd4BDTRFastReadQuadIO = 0xEE

	cmdWriteEnable         = 0x06
	cmdWriteDisable        = 0x04
	cmdReadStatusReg       = 0x05
	cmdReadFlagStatusReg   = 0x70
	cmdReadNVConfigReg     = 0xB5
	cmdReadVConfigReg      = 0x85
	cmdReadEVConfigReg     = 0x65
	cmdReadExtAddrReg      = 0xC8
	cmdWriteStatusReg      = 0x01
	cmdWriteNVConfigReg    = 0xB1
	cmdWriteVConfigReg     = 0x81
	cmdWriteEVConfigReg    = 0x61
	cmdWriteExtAddrReg     = 0xC5
	cmdClearFlagStatusReg  = 0x50

	cmdPageProgram            = 0x02
	cmdPageProgramDualIn      = 0xA2
	cmdPageProgramDualInExt   = 0xD2
	cmdPageProgramQuadIn      = 0x32
	cmdPageProgramQuadInExt   = 0x38
	cmd4BPageProgram          = 0x12
	cmd4BPageProgramQuadIn    = 0x34
	cmd4BPageProgramQuadInExt = 0x3E

	cmd32KBSubsectorErase = 0x52
	cmd4KBSubsectorErase  = 0x20
	cmdSectorErase        = 0xD8
	cmdBulkErase          = 0xC7
	cmd4B4KBSubsectorErase = 0x21
	cmd4BSectorErase      = 0xDC

	cmdProgramSuspend = 0x75
	cmdProgramResume  = 0x7A
	cmdReadOTPArray   = 0x4B
	cmdProgramOTPArray = 0x42

	cmdEnter4BAddrMode = 0xB7
	cmdExit4BAddrMode  = 0xE9
	cmdEnterQuadIOMode = 0x35
	cmdExitQuadIOMode  = 0xF5

	cmdEnterDeepPowerDown = 0xB9
	cmdExitDeepPowerDown  = 0xAB

	cmdReadSectorProtection = 0x2D
	cmdPrgmSectorProtection = 0x2C
	cmdReadVLockBits        = 0xE8
	cmdWriteVLockBits       = 0xE5
	cmd4BReadVLockBits      = 0xE0
	cmd4BWriteVLockBits     = 0xE1
	cmdReadNVLockBits       = 0xE2
	cmdPrgmNVLockBits       = 0xE3
	cmdEraseNVLockBits      = 0xE4

	cmdReadGlobalFreezeBit  = 0xA7
	cmdWriteGlobalFreezeBit = 0xA6

	cmdReadPassword     = 0x27
	cmdWritePassword    = 0x28
	cmdUnlockPassword   = 0x29
)

// Macronix vendor-specific opcodes, a disjoint sub-enumeration per
// spec.md §3.
const (
	mxicCmdRDCR   = 0x15
	mxicCmdRDSCUR = 0x2B
	mxicCmdWRSCUR = 0x2F
	mxicCmdGBLK   = 0x7E
	mxicCmdGBULK  = 0x98
	mxicCmdWRLR   = 0x2C
	mxicCmdRDLR   = 0x2D
	mxicCmdWRSPB  = 0xE3
	mxicCmdESSPB  = 0xE4
	mxicCmdRDSPB  = 0xE2
	mxicCmdWRDPB  = 0xE1
	mxicCmdRDDPB  = 0xE0
)

// Sizes fixed by this core's NOR geometry assumptions.
const (
	spiPageSize      = 0x100
	spiSubsectorSize = 0x1000
	spiSectorSize    = 0x10000

	// extAddrThreshold is the device size above which 3-byte address
	// commands need the extended-address register (spec.md §4.4.4/§4.4.5),
	// and above which read uses 4-byte address opcodes (spec.md §4.4.3).
	extAddrThreshold = 0x1000000
)

// Control-register bit layout (spec.md §3).
const (
	flashD0   = 1 << 0
	flashD1   = 1 << 1
	flashD2   = 1 << 2
	flashD3   = 1 << 3
	flashD01  = flashD0 | flashD1
	flashD012 = flashD0 | flashD1 | flashD2
	flashD0123 = flashD0 | flashD1 | flashD2 | flashD3

	flashOE0    = 1 << 8
	flashOE1    = 1 << 9
	flashOE2    = 1 << 10
	flashOE3    = 1 << 11
	flashOE01   = flashOE0 | flashOE1
	flashOE0123 = flashOE0 | flashOE1 | flashOE2 | flashOE3

	flashCLK  = 1 << 16
	flashCSN  = 1 << 17
)

// Status register bits (spec.md §6).
const (
	statusWIP = 1 << 0
	statusWEL = 1 << 1
)
