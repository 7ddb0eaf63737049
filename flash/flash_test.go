package flash

import (
	"bytes"
	"errors"
	"testing"
)

func openTestDevice(t *testing.T, m *flashModel, dataWidth DataWidth) *Device {
	t.Helper()
	fdev, err := OpenSPI(dataWidth, m.open(), 0)
	if err != nil {
		t.Fatalf("OpenSPI: %v", err)
	}
	t.Cleanup(fdev.Close)
	return fdev
}

// S1: a 16 MiB Micron part identifies correctly and exposes the geometry
// Init derives from the JEDEC capacity byte.
func TestInitDecodesMicronGeometry(t *testing.T) {
	const size = 16 * 1024 * 1024
	m := newMicronModel(size)
	fdev := openTestDevice(t, m, DataWidth1)

	if fdev.Size != size {
		t.Errorf("Size = 0x%x, want 0x%x", fdev.Size, size)
	}
	if fdev.WriteBufferSize != spiPageSize {
		t.Errorf("WriteBufferSize = %d, want %d", fdev.WriteBufferSize, spiPageSize)
	}
}

// S2: a Macronix capacity byte that decodes to a negative shift is rejected
// as a HardwareError rather than panicking or wrapping around.
func TestInitRejectsMacronixNegativeShift(t *testing.T) {
	m := newFlashModel(mfrMacronix, 0x20, 0x19, 1024, 6)
	_, err := OpenSPI(DataWidth1, m.open(), 0)
	if err == nil {
		t.Fatal("OpenSPI succeeded on an undecodable capacity byte")
	}
	if !errors.Is(err, ErrHardware) {
		t.Errorf("err = %v, want a HardwareError", err)
	}
}

// Dead bus (0x00/0xFF manufacturer id) is rejected the same way.
func TestInitRejectsDeadBus(t *testing.T) {
	m := newFlashModel(0x00, 0x00, 0x00, 1024, 0)
	_, err := OpenSPI(DataWidth1, m.open(), 0)
	if !errors.Is(err, ErrHardware) {
		t.Errorf("err = %v, want a HardwareError", err)
	}
}

func TestReadRoundTrip(t *testing.T) {
	m := newMicronModel(1 << 20)
	copy(m.mem[0x100:], []byte("a NOR flash readback payload"))
	fdev := openTestDevice(t, m, DataWidth1)

	dest := make([]byte, len("a NOR flash readback payload"))
	if err := fdev.Read(0x100, uintptr(len(dest)), dest); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(dest) != "a NOR flash readback payload" {
		t.Errorf("Read = %q", dest)
	}
}

func TestQuadReadRoundTrip(t *testing.T) {
	m := newMicronModel(1 << 20)
	payload := bytes.Repeat([]byte{0xA5, 0x5A, 0x3C}, 16)
	copy(m.mem[0x400:], payload)
	fdev := openTestDevice(t, m, DataWidth4)

	dest := make([]byte, len(payload))
	if err := fdev.Read(0x400, uintptr(len(dest)), dest); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(dest, payload) {
		t.Errorf("Read = %x, want %x", dest, payload)
	}
}

// S4: a write spanning a page boundary completes as two independent
// page-program cycles.
func TestWriteAcrossPageBoundary(t *testing.T) {
	m := newMicronModel(1 << 20)
	fdev := openTestDevice(t, m, DataWidth1)

	src := bytes.Repeat([]byte{0x11}, 512)
	if err := fdev.Write(0, src); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(m.mem[:512], src) {
		t.Errorf("programmed region mismatch")
	}
}

// S5: a misaligned write address is rejected before anything is programmed.
func TestWriteRejectsMisalignedAddress(t *testing.T) {
	m := newMicronModel(1 << 20)
	for i := range m.mem[:0x20] {
		m.mem[i] = 0x42
	}
	fdev := openTestDevice(t, m, DataWidth1)

	err := fdev.Write(0x0010, []byte{0xAA, 0xBB})
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("err = %v, want a RequestError", err)
	}
	for i := 0; i < 0x20; i++ {
		if m.mem[i] != 0x42 {
			t.Fatalf("byte %d was modified despite the alignment rejection", i)
		}
	}
}

// S6: erasing a region spanning a sector and a subsector picks the largest
// block available at each step.
func TestEraseMixedRegion(t *testing.T) {
	m := newMicronModel(1 << 20)
	for i := range m.mem[:0x11000] {
		m.mem[i] = 0x00
	}
	fdev := openTestDevice(t, m, DataWidth1)

	if err := fdev.Erase(0, 0x11000); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	for i := 0; i < 0x11000; i++ {
		if m.mem[i] != 0xFF {
			t.Fatalf("byte 0x%x not erased", i)
		}
	}
}

// An erase request that fits neither a sector nor a subsector boundary is
// rejected rather than silently rounding.
func TestEraseRejectsUnalignedRequest(t *testing.T) {
	m := newMicronModel(1 << 20)
	fdev := openTestDevice(t, m, DataWidth1)

	err := fdev.Erase(0x0800, 0x1000)
	if !errors.Is(err, ErrRequest) {
		t.Errorf("err = %v, want a RequestError", err)
	}
}

func TestOpenSPIRejectsNilInterface(t *testing.T) {
	_, err := OpenSPI(DataWidth1, nil, 0)
	if !errors.Is(err, ErrConfig) {
		t.Errorf("err = %v, want a ConfigError", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	m := newMicronModel(1 << 16)
	fdev := openTestDevice(t, m, DataWidth1)
	fdev.Close()
	fdev.Close()
}

func TestBPIDataPathUnsupported(t *testing.T) {
	m := newMicronModel(1 << 16)
	fdev, err := OpenBPI(DataWidth1, m.open(), 0, 8, 16)
	if err != nil {
		t.Fatalf("OpenBPI: %v", err)
	}
	defer fdev.Close()

	if err := fdev.Read(0, 1, make([]byte, 1)); !errors.Is(err, ErrConfig) {
		t.Errorf("Read err = %v, want ConfigError", err)
	}
	if err := fdev.Write(0, []byte{0x00}); !errors.Is(err, ErrConfig) {
		t.Errorf("Write err = %v, want ConfigError", err)
	}
	if err := fdev.Erase(0, 0x1000); !errors.Is(err, ErrConfig) {
		t.Errorf("Erase err = %v, want ConfigError", err)
	}
}

func TestFlashErrorIsMatchesByKindOnly(t *testing.T) {
	e1 := newErr("read", HardwareError, errors.New("bus timeout"))
	e2 := newErr("write", HardwareError, errors.New("different cause"))
	if !errors.Is(e1, e2) {
		t.Error("two HardwareErrors with different Op/Err should compare equal via Is")
	}
	if errors.Is(e1, ErrRequest) {
		t.Error("a HardwareError should not match ErrRequest")
	}
}
