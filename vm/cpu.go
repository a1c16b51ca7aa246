package vm

// CPU represents the LC-3 processor state: eight general-purpose registers, the
// program counter, the processor status register, and the shadow stack pointer
// slots spec.md section 3 describes ("Two shadow stack-pointer slots hold the
// inactive user and supervisor stack pointers; the active SP is whichever lives
// in R6 for the current privilege mode").
type CPU struct {
	R   [8]uint16
	PC  uint16
	PSR PSR

	SavedUSP uint16 // inactive user stack pointer
	SavedSSP uint16 // inactive supervisor stack pointer

	Cycles uint64
}

// Register aliases.
const (
	R0 = 0
	R1 = 1
	R2 = 2
	R3 = 3
	R4 = 4
	R5 = 5
	R6 = 6
	R7 = 7
	SP = R6
	RA = R7 // link register written by JSR/JSRR/TRAP
)

// NewCPU creates a CPU in its reset state: user mode, priority 0, condition
// codes set to Z, SSP = 0x3000, USP = 0 (spec.md section 4.2.6, "Reload" defaults).
func NewCPU() *CPU {
	c := &CPU{}
	c.ResetDefaults()
	return c
}

// ResetDefaults clears R0..R7 and restores the PSR/shadow-SP defaults used by a
// Reload (spec.md section 4.2.6). R6 is the *active* stack pointer; since the
// default mode is user, R6 holds USP (0) directly and SavedSSP holds the
// inactive supervisor pointer (0x3000), ready for the first privilege swap.
func (c *CPU) ResetDefaults() {
	c.R = [8]uint16{}
	c.PSR = PSR{Mode: ModeUser, Priority: 0}
	c.PSR.SetCC(0)
	c.SavedSSP = 0x3000
	c.SavedUSP = 0
	c.R[SP] = 0
	c.Cycles = 0
}

func (c *CPU) GetRegister(n int) uint16 { return c.R[n&7] }

func (c *CPU) SetRegister(n int, v uint16) { c.R[n&7] = v }

// IncrementPC advances PC by one word, modulo 2^16. spec.md section 3: "The PC is
// incremented before the operand computations of the currently-executing
// instruction."
func (c *CPU) IncrementPC() {
	c.PC++
}

// SwapToSupervisor performs the privilege transition of spec.md section 4.2.2:
// on entry to a trap/exception/interrupt while in user mode, swap R6 with the
// saved supervisor SP, stash the former R6 as the saved user SP, and clear the
// user-mode bit.
func (c *CPU) SwapToSupervisor() {
	if c.PSR.Mode == ModeUser {
		c.SavedUSP = c.R[SP]
		c.R[SP] = c.SavedSSP
		c.PSR.Mode = ModeSupervisor
	}
}

// SwapFromRTI reverses SwapToSupervisor when RTI pops a PSR with the user-mode
// bit set: swap R6 back with the saved user SP, saving supervisor's into the
// saved supervisor SP slot (spec.md section 4.2.2).
func (c *CPU) SwapFromRTI(poppedMode Mode) {
	if poppedMode == ModeUser {
		c.SavedSSP = c.R[SP]
		c.R[SP] = c.SavedUSP
	}
}
