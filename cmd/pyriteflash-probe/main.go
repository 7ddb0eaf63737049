// Command pyriteflash-probe opens a register-block chain over a GPIO-backed
// control register, finds the first flash register block, and dumps a
// JEDEC ID and a short hexdump from it. It exists to exercise the reg,
// regblock, flash, and transport/gpioreg packages end to end against real
// hardware; it is not the programming application spec.md excludes.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gentam/pyriteflash/flash"
	"github.com/gentam/pyriteflash/internal/bitlog"
	"github.com/gentam/pyriteflash/reg"
	"github.com/gentam/pyriteflash/regblock"
	"github.com/gentam/pyriteflash/transport/gpioreg"
)

const (
	flashBlockType = 0x1000 // register-block chain type ID for a flash engine node.
	regionSize     = 1 << 20
)

func main() {
	var (
		nread   int
		quad    bool
		outFile string
	)
	flag.IntVar(&nread, "n", 256, "number of bytes to read")
	flag.BoolVar(&quad, "quad", false, "negotiate quad I/O mode")
	flag.StringVar(&outFile, "o", "", "output file (default: hexdump)")
	flag.Parse()

	bitlog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(nread, quad, outFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(nread int, quad bool, outFile string) error {
	ft, err := gpioreg.OpenFT2232H()
	if err != nil {
		return fmt.Errorf("open FT2232H: %w", err)
	}
	win, err := gpioreg.NewGPIOWindow(gpioreg.DefaultPinSet(ft))
	if err != nil {
		return fmt.Errorf("open GPIO window: %w", err)
	}

	regs := reg.OpenRaw(win, 0)
	defer regs.Close()

	blocks, err := regblock.Enumerate(regs, 0, 0, regionSize)
	if err != nil {
		return fmt.Errorf("enumerate register blocks: %w", err)
	}
	defer regblock.Close(blocks)

	block, ok := regblock.Find(blocks, flashBlockType, 0, 0)
	if !ok {
		return fmt.Errorf("no flash register block found")
	}

	dataWidth := flash.DataWidth1
	if quad {
		dataWidth = flash.DataWidth4
	}
	fdev, err := flash.OpenSPI(dataWidth, block.View, 0)
	if err != nil {
		return fmt.Errorf("open flash: %w", err)
	}
	defer fdev.Close()

	dest := make([]byte, nread)
	if err := fdev.Read(0, uintptr(nread), dest); err != nil {
		return fmt.Errorf("read flash: %w", err)
	}

	if outFile == "" {
		fmt.Println(hex.Dump(dest))
		return nil
	}
	return os.WriteFile(outFile, dest, 0644)
}
