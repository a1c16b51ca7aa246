// Package loader places an assembled object image into a VM's memory and
// primes its program counter, the one-shot operation spec.md section 6.1
// describes for turning an Image into a running program.
package loader

import (
	"fmt"

	"github.com/go-lc3/lc3sim/assembler"
	"github.com/go-lc3/lc3sim/vm"
)

// Load copies img's program body into m starting at img.Origin() and sets
// cpu.PC to img.Origin(). Grounded on loader.LoadProgramIntoVM, collapsed to
// a one-shot copy since the assembler has already produced a fully resolved
// image — there is no per-directive re-encoding left to do at load time.
func Load(m *vm.Memory, cpu *vm.CPU, img *assembler.Image) error {
	if img == nil {
		return fmt.Errorf("loader: nil image")
	}

	origin := img.Origin()
	program := img.Program()
	if int(origin)+len(program) > 0x10000 {
		return fmt.Errorf("loader: program of %d words at origin x%04X overruns memory", len(program), origin)
	}

	for i, word := range program {
		m.WriteRaw(origin+uint16(i), word)
	}
	cpu.PC = origin
	return nil
}

// LoadAndReset is Load followed by a fresh CPU reset to spec.md section
// 4.2.6's "Reload" defaults, used when a debugger `load` command should also
// clear whatever execution state a prior program left behind.
func LoadAndReset(m *vm.Memory, cpu *vm.CPU, img *assembler.Image) error {
	cpu.ResetDefaults()
	return Load(m, cpu, img)
}

// LoadIntoVM is Load plus bookkeeping of the image's origin and the image
// itself on machine, so a later Restart (spec.md section 4.2.6) can reset PC
// without the image, and a later Reload can re-copy its words into memory.
func LoadIntoVM(machine *vm.VM, img *assembler.Image) error {
	if err := Load(machine.Mem, machine.CPU, img); err != nil {
		return err
	}
	machine.LastOrigin = img.Origin()
	machine.LastImage = img
	return nil
}

// LoadAndResetVM is LoadAndReset plus origin bookkeeping, the "Reload" path a
// debugger `load` command drives.
func LoadAndResetVM(machine *vm.VM, img *assembler.Image) error {
	machine.CPU.ResetDefaults()
	return LoadIntoVM(machine, img)
}
