package assembler

// Opcodes, per spec.md section 6.2.
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
	opRES  = 0xD // reserved / illegal opcode
	opLEA  = 0xE
	opTRAP = 0xF
)

// Canonical trap vectors, spec.md section 6.4.
const (
	TrapGETC  = 0x20
	TrapOUT   = 0x21
	TrapPUTS  = 0x22
	TrapIN    = 0x23
	TrapPUTSP = 0x24
	TrapHALT  = 0x25
)

// operandCounts gives the fixed operand count for every recognised mnemonic and
// directive, per spec.md section 4.1.1. .blkw is handled separately since it
// accepts 1 or 2 operands.
var operandCounts = map[string]int{
	"ret": 0, "rti": 0, "getc": 0, "halt": 0, "in": 0, "out": 0, "puts": 0, "putsp": 0,
	".end": 0,

	"jmp": 1, "jsr": 1, "jsrr": 1, "trap": 1, ".orig": 1, ".fill": 1, ".stringz": 1,

	"ld": 2, "ldi": 2, "lea": 2, "not": 2, "st": 2, "sti": 2,

	"add": 3, "and": 3, "ldr": 3, "str": 3,
}

// brVariants maps every BR{,n,z,p,nz,np,zp,nzp} spelling to its n/z/p bits.
var brVariants = map[string][3]bool{
	"br":    {true, true, true},
	"brn":   {true, false, false},
	"brz":   {false, true, false},
	"brp":   {false, false, true},
	"brnz":  {true, true, false},
	"brnp":  {true, false, true},
	"brzp":  {false, true, true},
	"brnzp": {true, true, true},
}

func isBRMnemonic(m string) bool {
	_, ok := brVariants[m]
	return ok
}

var directives = map[string]bool{
	".orig": true, ".end": true, ".fill": true, ".blkw": true, ".stringz": true,
}

func isMnemonicOrDirective(tok string) bool {
	if _, ok := operandCounts[tok]; ok {
		return true
	}
	if isBRMnemonic(tok) {
		return true
	}
	if tok == ".blkw" {
		return true
	}
	if len(tok) > 0 && tok[0] == '.' {
		return true
	}
	return false
}
