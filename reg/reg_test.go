package reg

import (
	"errors"
	"testing"
)

func newTestRaw(size int) (*Interface, *ByteWindow) {
	w := NewByteWindow(make([]byte, size))
	return OpenRaw(w, uintptr(size)), w
}

func TestRawReadWriteRoundTrip(t *testing.T) {
	r, _ := newTestRaw(0x100)

	if err := r.Write32(0x10, 0xDEADBEEF); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	got, err := r.Read32(0x10)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Errorf("Read32 = %#x, want %#x", got, 0xDEADBEEF)
	}

	if err := r.Write8(0x20, 0x42); err != nil {
		t.Fatalf("Write8: %v", err)
	}
	if v, err := r.Read8(0x20); err != nil || v != 0x42 {
		t.Errorf("Read8 = %#x, %v, want 0x42, nil", v, err)
	}
}

func TestRawBoundsChecked(t *testing.T) {
	r, _ := newTestRaw(0x10)

	if _, err := r.Read8(0x10); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Read8 at size = %v, want ErrOutOfBounds", err)
	}
	if err := r.Write32(0x20, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Write32 past size = %v, want ErrOutOfBounds", err)
	}
}

func TestUnboundedRawAllowsAnyOffset(t *testing.T) {
	w := NewByteWindow(make([]byte, 0x1000))
	r := OpenRaw(w, 0)

	if err := r.Write8(0x800, 7); err != nil {
		t.Fatalf("Write8 on unbounded window: %v", err)
	}
}

func TestOpenOffsetRejectsOutOfRangeStart(t *testing.T) {
	parent, _ := newTestRaw(0x1000)

	if _, err := OpenOffset(parent, 0x1000, 0x10); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("OpenOffset(off==parent.size) = %v, want ErrOutOfBounds", err)
	}
	if _, err := OpenOffset(parent, 0x2000, 0x10); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("OpenOffset(off>parent.size) = %v, want ErrOutOfBounds", err)
	}
}

// TestOpenOffsetClampsSize covers spec scenario S8: a child view's size is
// clamped to whatever remains in a bounded parent.
func TestOpenOffsetClampsSize(t *testing.T) {
	parent, _ := newTestRaw(0x1000)

	child, err := OpenOffset(parent, 0x800, 0x1000)
	if err != nil {
		t.Fatalf("OpenOffset: %v", err)
	}
	if got, want := child.Size(), uintptr(0x800); got != want {
		t.Errorf("child.Size() = %#x, want %#x", got, want)
	}
}

func TestOffsetViewTranslatesAndBounds(t *testing.T) {
	parent, _ := newTestRaw(0x100)

	child, err := OpenOffset(parent, 0x10, 0x20)
	if err != nil {
		t.Fatalf("OpenOffset: %v", err)
	}

	if err := child.Write32(0x4, 0x1234); err != nil {
		t.Fatalf("child.Write32: %v", err)
	}
	got, err := parent.Read32(0x14)
	if err != nil || got != 0x1234 {
		t.Errorf("parent.Read32(0x14) = %#x, %v, want 0x1234, nil", got, err)
	}

	if _, err := child.Read8(0x20); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("child.Read8 past child size = %v, want ErrOutOfBounds", err)
	}
}

// TestCloseChildDoesNotCloseParent ensures closing an offset view leaves the
// parent interface usable.
func TestCloseChildDoesNotCloseParent(t *testing.T) {
	parent, _ := newTestRaw(0x100)
	child, err := OpenOffset(parent, 0, 0x10)
	if err != nil {
		t.Fatalf("OpenOffset: %v", err)
	}

	if err := child.Close(); err != nil {
		t.Fatalf("child.Close: %v", err)
	}
	if err := parent.Write8(0, 1); err != nil {
		t.Errorf("parent usable after child.Close: %v", err)
	}
	if _, err := child.Read8(0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("closed child.Read8 = %v, want ErrUnsupported", err)
	}
}
