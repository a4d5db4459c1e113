// Command mkimage is the disk-image builder from the CLI
// surface: it takes a kernel ELF binary path and writes boot.img, a
// byte-for-byte copy of the kernel ELF; no bootloader or partition
// layout is added. Grounded on the established kernel/chentry.go, which patches
// an ELF's entry point with debug/elf; this tool additionally
// disassembles the first instructions at the entry point with
// golang.org/x/arch/x86/x86asm as a build-time sanity check, catching
// a clearly wrong entry address before the image is ever booted.
package main

import (
	"debug/elf"
	"fmt"
	"os"

	"golang.org/x/arch/x86/x86asm"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: mkimage <kernel-elf>")
		os.Exit(1)
	}
	if err := run(os.Args[1], "boot.img"); err != nil {
		fmt.Fprintln(os.Stderr, "mkimage:", err)
		os.Exit(1)
	}
}

func run(kernelPath, outPath string) error {
	f, err := elf.Open(kernelPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", kernelPath, err)
	}
	defer f.Close()

	if err := sanityCheckEntry(f); err != nil {
		return err
	}

	raw, err := os.ReadFile(kernelPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, raw, 0o644)
}

// sanityCheckEntry reads a few bytes at the ELF entry point from
// whichever section contains it and decodes the first instruction,
// rejecting an entry point that does not even disassemble — the
// cheapest possible check that the entry address wasn't corrupted by
// an earlier build step.
func sanityCheckEntry(f *elf.File) error {
	entry := f.Entry
	for _, sec := range f.Sections {
		if sec.Addr == 0 || entry < sec.Addr || entry >= sec.Addr+sec.Size {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			return fmt.Errorf("read section %s: %w", sec.Name, err)
		}
		off := entry - sec.Addr
		if off >= uint64(len(data)) {
			continue
		}
		window := data[off:]
		if len(window) > 16 {
			window = window[:16]
		}
		inst, err := x86asm.Decode(window, 64)
		if err != nil {
			return fmt.Errorf("entry point %#x does not decode as x86-64: %w", entry, err)
		}
		_ = inst
		return nil
	}
	return fmt.Errorf("entry point %#x is not contained in any section", entry)
}
