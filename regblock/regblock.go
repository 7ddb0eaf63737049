// Package regblock enumerates a self-describing chain of register blocks
// within a register window: each block is a (type, version, next-offset)
// header exposing a sub-window of device registers.
package regblock

import (
	"errors"
	"fmt"

	"github.com/gentam/pyriteflash/reg"
)

// ErrLoop is returned when a block chain's next-offset revisits a
// previously visited absolute offset.
var ErrLoop = errors.New("regblock: register blocks form a loop")

// Block is one node of the enumerated chain. A zero-value Block (View ==
// nil) is never returned to callers of Enumerate; Find reports "not found"
// with a bool instead of relying on a sentinel node, as Go slices make the
// C implementation's sentinel-terminated array unnecessary.
type Block struct {
	Type    uint32
	Version uint32
	Offset  uintptr
	View    *reg.Interface
}

// Enumerate walks the block chain starting at offset within regs, whose
// absolute coordinate space begins at base. size bounds the walk the same
// way it bounds reg.Interface accesses.
//
// Each node's three leading 32-bit words are type, version, and the next
// node's offset (relative to base). next == 0 terminates normally after at
// least one block has been read. A next offset that maps to a previously
// visited node's absolute offset is a loop and fails with ErrLoop.
func Enumerate(regs *reg.Interface, base, offset, size uintptr) ([]Block, error) {
	var list []Block

	for {
		if (offset == 0 && len(list) != 0) || offset >= size {
			break
		}

		ptr := base + offset

		for _, b := range list {
			if ptr == b.Offset {
				return nil, fmt.Errorf("regblock: loop at offset %#x: %w", ptr, ErrLoop)
			}
		}

		typ, err := regs.Read32(ptr + 0x00)
		if err != nil {
			return nil, fmt.Errorf("regblock: read type at %#x: %w", ptr, err)
		}
		version, err := regs.Read32(ptr + 0x04)
		if err != nil {
			return nil, fmt.Errorf("regblock: read version at %#x: %w", ptr, err)
		}
		next, err := regs.Read32(ptr + 0x08)
		if err != nil {
			return nil, fmt.Errorf("regblock: read next at %#x: %w", ptr, err)
		}

		view, err := reg.OpenOffset(regs, ptr, size-offset)
		if err != nil {
			return nil, fmt.Errorf("regblock: open view at %#x: %w", ptr, err)
		}

		list = append(list, Block{
			Type:    typ,
			Version: version,
			Offset:  ptr,
			View:    view,
		})

		offset = uintptr(next)
	}

	return list, nil
}

// Find returns the index'th (0-based) block matching type and version.
// version == 0 matches any version. It reports false when no such block
// exists.
func Find(list []Block, typ, version uint32, index int) (Block, bool) {
	for _, b := range list {
		if b.Type != typ || (version != 0 && b.Version != version) {
			continue
		}
		if index > 0 {
			index--
			continue
		}
		return b, true
	}
	return Block{}, false
}

// Close releases every view held by list.
func Close(list []Block) {
	for _, b := range list {
		b.View.Close()
	}
}
