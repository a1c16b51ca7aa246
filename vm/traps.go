package vm

// Canonical trap vectors, spec.md section 6.4. Mirrored from
// assembler/constants.go (a separate copy, since assembler cannot import vm
// without an import cycle) so the built-in OS image in os.go can render its
// trap-vector table from named constants instead of repeating the hex
// literals a second time.
const (
	TrapGETC  = 0x20
	TrapOUT   = 0x21
	TrapPUTS  = 0x22
	TrapIN    = 0x23
	TrapPUTSP = 0x24
	TrapHALT  = 0x25
)
