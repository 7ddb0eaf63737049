package regblock

import (
	"errors"
	"testing"

	"github.com/gentam/pyriteflash/reg"
)

func putHeader(buf []byte, off uintptr, typ, version, next uint32) {
	put32 := func(o uintptr, v uint32) {
		buf[o] = byte(v)
		buf[o+1] = byte(v >> 8)
		buf[o+2] = byte(v >> 16)
		buf[o+3] = byte(v >> 24)
	}
	put32(off+0x00, typ)
	put32(off+0x04, version)
	put32(off+0x08, next)
}

func TestEnumerateWalksChainToTerminator(t *testing.T) {
	size := uintptr(0x100)
	buf := make([]byte, size)
	putHeader(buf, 0x00, 0x1000, 1, 0x20)
	putHeader(buf, 0x20, 0x1001, 2, 0x00)

	regs := reg.OpenRaw(reg.NewByteWindow(buf), size)

	list, err := Enumerate(regs, 0, 0, size)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].Type != 0x1000 || list[0].Offset != 0x00 {
		t.Errorf("list[0] = %+v", list[0])
	}
	if list[1].Type != 0x1001 || list[1].Offset != 0x20 {
		t.Errorf("list[1] = %+v", list[1])
	}
}

func TestEnumerateDetectsLoop(t *testing.T) {
	size := uintptr(0x100)
	buf := make([]byte, size)

	// A(next=B), B(next=A's absolute offset): a two-node loop. A bare
	// next==0 would terminate normally (offset==0 after the first node),
	// so B must point back at A's own nonzero absolute offset to force
	// the loop instead.
	putHeader(buf, 0x20, 0x2000, 1, 0x40)
	putHeader(buf, 0x40, 0x2001, 1, 0x20)
	regs := reg.OpenRaw(reg.NewByteWindow(buf), size)

	_, err := Enumerate(regs, 0, 0x20, size)
	if err == nil {
		t.Fatal("Enumerate over a loop chain returned nil error")
	}
	if !errors.Is(err, ErrLoop) {
		t.Errorf("Enumerate error = %v, want wrapping ErrLoop", err)
	}
}

func TestFindWildcardVersionAndIndex(t *testing.T) {
	list := []Block{
		{Type: 1, Version: 1, Offset: 0x00},
		{Type: 1, Version: 2, Offset: 0x10},
		{Type: 2, Version: 1, Offset: 0x20},
	}

	if b, ok := Find(list, 1, 0, 1); !ok || b.Offset != 0x10 {
		t.Errorf("Find(1,wildcard,1) = %+v, %v, want offset 0x10, true", b, ok)
	}
	if _, ok := Find(list, 1, 0, 2); ok {
		t.Error("Find(1,wildcard,2) should not match (only 2 blocks of type 1)")
	}
	if b, ok := Find(list, 2, 1, 0); !ok || b.Offset != 0x20 {
		t.Errorf("Find(2,1,0) = %+v, %v, want offset 0x20, true", b, ok)
	}
}
