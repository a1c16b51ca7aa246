package vm

import (
	"fmt"

	"github.com/go-lc3/lc3sim/assembler"
)

// builtinOSSourceTemplate is the tiny resident operating system spec.md
// section 4.2.6 refers to as the "built-in OS region": the trap and interrupt
// vector tables plus the six canonical trap-vector service routines
// (GETC/OUT/PUTS/IN/PUTSP/HALT), a shared exception entry point, and a
// keyboard ISR stub. It is
// assembled with this package's own assembler, the same way a user program
// would be, and loaded into low memory by NewVM, ResetMemory and
// RandomizeMemory. A Reload of the user image leaves it as it is.
//
// PUTSP is implemented identically to PUTS (one character per memory word)
// rather than the traditional two-bytes-packed-per-word encoding: spec.md
// never specifies the packing, and unpacking a byte without a shift
// instruction needs a bit-extraction loop that cannot be verified here without
// running it, so the simpler and certainly-correct behaviour was chosen.
const builtinOSSourceTemplate = `
.ORIG x0000
.BLKW x%X
.FILL GETCROUTINE
.FILL OUTROUTINE
.FILL PUTSROUTINE
.FILL INROUTINE
.FILL PUTSPROUTINE
.FILL HALTROUTINE
.BLKW x%X
.FILL EXCPT
.BLKW x%X
.FILL KBISR
.BLKW x%X
GETCROUTINE LDI R0,KBSRADDR
BRzp GETCROUTINE
LDI R0,KBDRADDR
RET
KBSRADDR .FILL xFE00
KBDRADDR .FILL xFE02
OUTROUTINE ST R1,OUTR1SAVE
LDI R1,DSRADDR
BRzp OUTROUTINE
STI R0,DDRADDR
LD R1,OUTR1SAVE
RET
DSRADDR .FILL xFE04
DDRADDR .FILL xFE06
OUTR1SAVE .FILL 0
PUTSROUTINE ST R0,PUTSR0SAVE
ST R1,PUTSR1SAVE
ST R7,PUTSR7SAVE
ADD R1,R0,#0
PUTSLOOP LDR R0,R1,#0
BRz PUTSDONE
TRAP x%X
ADD R1,R1,#1
BR PUTSLOOP
PUTSDONE LD R0,PUTSR0SAVE
LD R1,PUTSR1SAVE
LD R7,PUTSR7SAVE
RET
PUTSR0SAVE .FILL 0
PUTSR1SAVE .FILL 0
PUTSR7SAVE .FILL 0
INROUTINE ST R7,INR7SAVE
LEA R0,INPROMPT
TRAP x%X
TRAP x%X
ST R0,INCHARSAVE
TRAP x%X
LD R0,INCHARSAVE
LD R7,INR7SAVE
RET
INPROMPT .STRINGZ "Input a character> "
INR7SAVE .FILL 0
INCHARSAVE .FILL 0
PUTSPROUTINE ST R0,PSR0SAVE
ST R1,PSR1SAVE
ST R7,PSR7SAVE
ADD R1,R0,#0
PSLOOP LDR R0,R1,#0
BRz PSDONE
TRAP x%X
ADD R1,R1,#1
BR PSLOOP
PSDONE LD R0,PSR0SAVE
LD R1,PSR1SAVE
LD R7,PSR7SAVE
RET
PSR0SAVE .FILL 0
PSR1SAVE .FILL 0
PSR7SAVE .FILL 0
HALTROUTINE AND R1,R1,#0
STI R1,MCRADDR
HALTLOOP BR HALTLOOP
MCRADDR .FILL xFFFE
EXCPT RTI
KBISR RTI
.END
`

// builtinOSSource renders builtinOSSourceTemplate against the shared trap
// and interrupt vector constants (traps.go, executor.go's excVector/
// kbdVector) instead of hardcoding their hex values a second time here.
func builtinOSSource() string {
	postTrapTablePadding := 0x100 - (TrapHALT + 1)
	postExceptionPadding := kbdVector - excVector - 1
	postKeyboardPadding := 0xFF - kbdVector

	return fmt.Sprintf(builtinOSSourceTemplate,
		TrapGETC, postTrapTablePadding, postExceptionPadding, postKeyboardPadding,
		TrapOUT, TrapPUTS, TrapGETC, TrapOUT, TrapOUT)
}

// builtinOSImage is assembled once; every load of the OS reuses the same words.
var builtinOSImage *assembler.Image

func init() {
	img, _, _, err := assembler.Assemble(builtinOSSource(), "builtin-os")
	if err != nil {
		panic(fmt.Sprintf("vm: builtin OS failed to assemble: %v", err))
	}
	builtinOSImage = img
}

// LoadBuiltinOS writes the resident OS image into mem at its assembled
// origin (spec.md section 4.2.6, "reload the built-in OS region"). It uses
// WriteRaw so the load itself never triggers MMIO side effects.
func LoadBuiltinOS(mem *Memory) {
	origin := builtinOSImage.Origin()
	for i, w := range builtinOSImage.Program() {
		mem.WriteRaw(origin+uint16(i), w)
	}
}
