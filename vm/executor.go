package vm

import (
	"fmt"

	"github.com/go-lc3/lc3sim/assembler"
)

// Opcodes, mirrored from the assembler's bit layout (spec.md section 6.2) so
// the simulator has no import dependency on the assembler package for its
// hot decode path.
const (
	opBR   = 0x0
	opADD  = 0x1
	opLD   = 0x2
	opST   = 0x3
	opJSR  = 0x4
	opAND  = 0x5
	opLDR  = 0x6
	opSTR  = 0x7
	opRTI  = 0x8
	opNOT  = 0x9
	opLDI  = 0xA
	opSTI  = 0xB
	opJMP  = 0xC
	opRES  = 0xD
	opLEA  = 0xE
	opTRAP = 0xF
)

const excVector = 0x00  // illegal opcode and privilege violation both vector here (spec.md S5)
const kbdVector = 0x80  // keyboard interrupt vector (spec.md section 4.2.5)
const kbdPriority = 4   // keyboard interrupt priority (spec.md section 4.2.5)

// VM ties a CPU and Memory together with the debugger-visible state spec.md
// section 4.2 adds on top of the bare fetch-decode-execute loop: a
// breakpoint set and a single-entry interrupt latch.
type VM struct {
	CPU *CPU
	Mem *Memory

	Breakpoints map[uint16]bool

	InterruptAsserted bool
	InterruptVector   uint16
	InterruptPriority uint8

	// MaxCycles bounds Run so a runaway program (or a bug in a program under
	// test) can't hang the host process forever; zero means unbounded. This
	// is a supplement to spec.md, which calls run's own loop "unbounded" and
	// leaves timeout entirely to the user (section 5).
	MaxCycles uint64

	// LastOrigin is the load address of the most recently loaded image,
	// recorded by loader.LoadIntoVM so Restart (spec.md section 4.2.6) can reset PC
	// without needing the image again.
	LastOrigin uint16

	// LastImage is the most recently loaded object image, recorded by
	// loader.LoadIntoVM so Reload (spec.md section 4.2.6) can re-copy its
	// words back into memory instead of merely resetting PC/PSR.
	LastImage *assembler.Image

	// Trace, if non-nil, records every cycle via disassemble. Left nil by
	// NewVM; main.go wires one in when -trace is requested.
	Trace       *ExecutionTrace
	disassemble func(word, pc uint16) string
}

// SetTrace installs a tracer and the disassembler callback it renders cycles
// with, breaking the import cycle an executor->tools dependency would cause
// (tools.Disassemble lives in a sibling package, not vm).
func (vm *VM) SetTrace(t *ExecutionTrace, disassemble func(word, pc uint16) string) {
	vm.Trace = t
	vm.disassemble = disassemble
}

// NewVM creates a VM with fresh CPU/Memory state and the built-in OS loaded.
func NewVM() *VM {
	mem := NewMemory()
	LoadBuiltinOS(mem)
	return &VM{
		CPU:         NewCPU(),
		Mem:         mem,
		Breakpoints: make(map[uint16]bool),
	}
}

// CycleResult reports what step 1 and step 4 of the cycle (spec.md section
// 4.2.1) did, which the step-over/step-out depth tracking of section 4.2.4
// needs in addition to peeking the pre-execution instruction word.
type CycleResult struct {
	TookException bool
	TookInterrupt bool
}

// Step executes exactly one instruction cycle per spec.md section 4.2.1.
func (vm *VM) Step() CycleResult {
	pc := vm.CPU.PC
	word := vm.Mem.Read(pc)
	opcode := word >> 12

	illegalOpcode := opcode == opRES
	privilegeViolation := opcode == opRTI && vm.CPU.PSR.Mode == ModeUser
	if illegalOpcode || privilegeViolation {
		vm.enterException(excVector)
		vm.CPU.Cycles++
		vm.recordTrace(word, pc)
		return CycleResult{TookException: true}
	}

	vm.CPU.IncrementPC()
	vm.execute(word)

	took := false
	if vm.InterruptAsserted && vm.InterruptPriority > vm.CPU.PSR.Priority {
		vm.enterInterrupt(vm.InterruptVector, vm.InterruptPriority)
		vm.InterruptAsserted = false
		took = true
	}
	vm.CPU.Cycles++
	vm.recordTrace(word, pc)
	return CycleResult{TookInterrupt: took}
}

// recordTrace appends the just-executed cycle to Trace, if one is installed.
func (vm *VM) recordTrace(word, pc uint16) {
	if vm.Trace == nil || !vm.Trace.Enabled {
		return
	}
	disasm := fmt.Sprintf("x%04X", word)
	if vm.disassemble != nil {
		disasm = vm.disassemble(word, pc)
	}
	vm.Trace.RecordInstruction(vm, disasm)
}

func (vm *VM) execute(word uint16) {
	opcode := word >> 12
	dr := int((word >> 9) & 0x7)
	sr1 := int((word >> 6) & 0x7)
	sr2 := int(word & 0x7)
	baseR := int((word >> 6) & 0x7)
	imm5 := signExtend(word&0x1F, 5)
	pcOffset9 := signExtend(word&0x1FF, 9)
	pcOffset11 := signExtend(word&0x7FF, 11)
	offset6 := signExtend(word&0x3F, 6)
	trapVect8 := word & 0xFF

	switch opcode {
	case opADD:
		var result uint16
		if word&(1<<5) != 0 {
			result = vm.CPU.R[sr1] + uint16(imm5)
		} else {
			result = vm.CPU.R[sr1] + vm.CPU.R[sr2]
		}
		vm.CPU.R[dr] = result
		vm.CPU.PSR.SetCC(result)

	case opAND:
		var result uint16
		if word&(1<<5) != 0 {
			result = vm.CPU.R[sr1] & uint16(imm5)
		} else {
			result = vm.CPU.R[sr1] & vm.CPU.R[sr2]
		}
		vm.CPU.R[dr] = result
		vm.CPU.PSR.SetCC(result)

	case opNOT:
		result := ^vm.CPU.R[sr1]
		vm.CPU.R[dr] = result
		vm.CPU.PSR.SetCC(result)

	case opBR:
		n, z, p := word&(1<<11) != 0, word&(1<<10) != 0, word&(1<<9) != 0
		if (n && vm.CPU.PSR.N) || (z && vm.CPU.PSR.Z) || (p && vm.CPU.PSR.P) {
			vm.CPU.PC = uint16(int32(vm.CPU.PC) + int32(pcOffset9))
		}

	case opJMP:
		vm.CPU.PC = vm.CPU.R[baseR]

	case opJSR:
		vm.CPU.R[RA] = vm.CPU.PC
		if word&(1<<11) != 0 {
			vm.CPU.PC = uint16(int32(vm.CPU.PC) + int32(pcOffset11))
		} else {
			vm.CPU.PC = vm.CPU.R[baseR]
		}

	case opLD:
		result := vm.Mem.Read(uint16(int32(vm.CPU.PC) + int32(pcOffset9)))
		vm.CPU.R[dr] = result
		vm.CPU.PSR.SetCC(result)

	case opLDI:
		ptr := vm.Mem.Read(uint16(int32(vm.CPU.PC) + int32(pcOffset9)))
		result := vm.Mem.Read(ptr)
		vm.CPU.R[dr] = result
		vm.CPU.PSR.SetCC(result)

	case opLDR:
		result := vm.Mem.Read(uint16(int32(vm.CPU.R[baseR]) + int32(offset6)))
		vm.CPU.R[dr] = result
		vm.CPU.PSR.SetCC(result)

	case opLEA:
		result := uint16(int32(vm.CPU.PC) + int32(pcOffset9))
		vm.CPU.R[dr] = result
		vm.CPU.PSR.SetCC(result)

	case opST:
		vm.Mem.Write(uint16(int32(vm.CPU.PC)+int32(pcOffset9)), vm.CPU.R[dr])

	case opSTI:
		ptr := vm.Mem.Read(uint16(int32(vm.CPU.PC) + int32(pcOffset9)))
		vm.Mem.Write(ptr, vm.CPU.R[dr])

	case opSTR:
		vm.Mem.Write(uint16(int32(vm.CPU.R[baseR])+int32(offset6)), vm.CPU.R[dr])

	case opRTI:
		poppedPC := vm.popWord()
		poppedPSR := DecodePSR(vm.popWord())
		vm.CPU.PC = poppedPC
		poppedMode := poppedPSR.Mode
		vm.CPU.PSR = poppedPSR
		vm.CPU.SwapFromRTI(poppedMode)

	case opTRAP:
		vm.CPU.R[RA] = vm.CPU.PC
		vm.CPU.SwapToSupervisor()
		vm.CPU.PC = vm.Mem.ReadRaw(trapVect8)
	}
}

// signExtend widens the low `bits` bits of v, treating bit (bits-1) as sign.
func signExtend(v uint16, bits uint) int32 {
	if v&(1<<(bits-1)) != 0 {
		v |= ^uint16(0) << bits
	}
	return int32(int16(v))
}

func (vm *VM) pushWord(v uint16) {
	vm.CPU.R[SP]--
	vm.Mem.WriteRaw(vm.CPU.R[SP], v)
}

func (vm *VM) popWord() uint16 {
	v := vm.Mem.ReadRaw(vm.CPU.R[SP])
	vm.CPU.R[SP]++
	return v
}

// enterException implements spec.md section 4.2.1 step 1: save PSR/PC, swap to
// supervisor, vector through mem[0x0100+vector]. Priority and flags are left
// untouched, unlike an interrupt entry.
func (vm *VM) enterException(vector uint16) {
	oldPC, oldPSR := vm.CPU.PC, vm.CPU.PSR
	vm.CPU.SwapToSupervisor()
	vm.pushWord(oldPSR.Encode())
	vm.pushWord(oldPC)
	vm.CPU.PSR.Mode = ModeSupervisor
	vm.CPU.PC = vm.Mem.ReadRaw(0x0100 + vector)
}

// enterInterrupt implements spec.md section 4.2.1 step 4.
func (vm *VM) enterInterrupt(vector uint16, priority uint8) {
	oldPC, oldPSR := vm.CPU.PC, vm.CPU.PSR
	vm.CPU.SwapToSupervisor()
	vm.pushWord(oldPSR.Encode())
	vm.pushWord(oldPC)
	vm.CPU.PSR = PSR{Mode: ModeSupervisor, Priority: priority}
	vm.CPU.PSR.SetCC(0)
	vm.CPU.PC = vm.Mem.ReadRaw(0x0100 + vector)
}

// KeyboardInterrupt is the inspection-API operation of spec.md section 4.2.5:
// latches asciiCode into KBDR and raises the interrupt latch at priority 4,
// vector 0x80, but only if the current priority is below 4 and the keyboard's
// interrupt-enable bit is set (spec.md testable property 7).
func (vm *VM) KeyboardInterrupt(asciiCode byte) {
	if vm.CPU.PSR.Priority >= kbdPriority {
		return
	}
	if !vm.Mem.KBSRInterruptEnabled() {
		return
	}
	vm.Mem.LatchKeyboardByte(asciiCode)
	vm.InterruptAsserted = true
	vm.InterruptVector = kbdVector
	vm.InterruptPriority = kbdPriority
}

// Run sets clock-enable and executes cycles until it is cleared or PC lands
// on a breakpoint (spec.md section 4.2.4).
func (vm *VM) Run() {
	vm.Mem.SetClockEnabled(true)
	for {
		vm.Step()
		if !vm.Mem.ClockEnabled() {
			return
		}
		if vm.Breakpoints[vm.CPU.PC] {
			return
		}
		if vm.MaxCycles > 0 && vm.CPU.Cycles >= vm.MaxCycles {
			return
		}
	}
}

// StepIn sets clock-enable and executes exactly one cycle.
func (vm *VM) StepIn() CycleResult {
	vm.Mem.SetClockEnabled(true)
	return vm.Step()
}

// StepOver runs until the subroutine entered by a JSR/JSRR/TRAP at the
// current PC returns, or behaves like StepIn for any other instruction.
func (vm *VM) StepOver() {
	vm.Mem.SetClockEnabled(true)
	word := vm.Mem.Read(vm.CPU.PC)
	if !isCallInstruction(word) {
		vm.Step()
		return
	}
	vm.runDepthLoop(0)
}

// StepOut runs until the currently executing subroutine returns.
func (vm *VM) StepOut() {
	vm.Mem.SetClockEnabled(true)
	vm.runDepthLoop(1)
}

// runDepthLoop drives cycles while tracking call depth (spec.md section
// 4.2.4): JSR/JSRR/TRAP and exception/interrupt entry increment, RET/RTI
// decrement. It peeks the not-yet-executed word at PC each cycle, the way
// spec.md requires, since the word may vanish once Step consumes it (an
// exception intercepts what looked like a return, and a normal instruction
// can still be followed by a same-cycle interrupt entry).
func (vm *VM) runDepthLoop(depth int) {
	for {
		word := vm.Mem.Read(vm.CPU.PC)
		call := isCallInstruction(word)
		ret := isReturnInstruction(word)

		res := vm.Step()

		if call {
			depth++
		}
		if res.TookException {
			depth++
		} else if ret {
			depth--
		}
		if res.TookInterrupt {
			depth++
		}

		if depth <= 0 {
			return
		}
		if !vm.Mem.ClockEnabled() {
			return
		}
		if vm.Breakpoints[vm.CPU.PC] {
			return
		}
	}
}

func isCallInstruction(word uint16) bool {
	opcode := word >> 12
	return opcode == opJSR || opcode == opTRAP
}

func isReturnInstruction(word uint16) bool {
	opcode := word >> 12
	if opcode == opRTI {
		return true
	}
	return opcode == opJMP && (word>>6)&0x7 == RA
}
