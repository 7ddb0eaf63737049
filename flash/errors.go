package flash

import "fmt"

// Kind classifies a FlashError, matching the taxonomy spec.md §7 assigns to
// this core.
type Kind int

const (
	// ConfigError: a null handle or an operation unsupported on a
	// transport/driver.
	ConfigError Kind = iota
	// BoundsError: an offset outside a window's size.
	BoundsError
	// HardwareError: dead bus, unknown vendor, WEL not set after WREN.
	HardwareError
	// RequestError: misaligned program/erase address.
	RequestError
	// StructureError: a register-block chain forms a loop, or allocation
	// failure during enumeration (surfaced here for callers that build a
	// flash.Device on top of a regblock-discovered window).
	StructureError
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "config"
	case BoundsError:
		return "bounds"
	case HardwareError:
		return "hardware"
	case RequestError:
		return "request"
	case StructureError:
		return "structure"
	default:
		return "unknown"
	}
}

// FlashError reports a failed flash operation: the device-facing call
// (Op), its taxonomy Kind, and, where applicable, an underlying transport
// error.
type FlashError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *FlashError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flash: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("flash: %s: %s", e.Op, e.Kind)
}

func (e *FlashError) Unwrap() error { return e.Err }

// Is reports whether target is a *FlashError of the same Kind, so callers
// can write errors.Is(err, flash.ErrHardware) the way one would check a
// sentinel, without caring about Op or the wrapped cause.
func (e *FlashError) Is(target error) bool {
	other, ok := target.(*FlashError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel FlashErrors usable with errors.Is for each Kind, independent of
// Op/Err.
var (
	ErrConfig    = &FlashError{Kind: ConfigError}
	ErrBounds    = &FlashError{Kind: BoundsError}
	ErrHardware  = &FlashError{Kind: HardwareError}
	ErrRequest   = &FlashError{Kind: RequestError}
	ErrStructure = &FlashError{Kind: StructureError}
)

func newErr(op string, kind Kind, err error) *FlashError {
	return &FlashError{Op: op, Kind: kind, Err: err}
}

// ErrUnsupportedOp wraps the Err of a ConfigError returned for an operation
// a driver variant does not implement (e.g. BPI data-path calls).
var ErrUnsupportedOp = fmt.Errorf("flash: operation not supported by this driver")
