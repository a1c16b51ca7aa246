package tools

import "fmt"

// opcode values mirror vm/executor.go's decode table (spec.md section 6.2).
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

func signExtend(v uint16, bits uint) int32 {
	if v&(1<<(bits-1)) != 0 {
		v |= ^uint16(0) << bits
	}
	return int32(int16(v))
}

// Disassemble renders the word at pc back to LC-3 assembly text, retargeted
// from the ARM mnemonic table the teacher's formatter worked over (no binary
// decoder existed in the original; this adapts its column-aligned style to a
// from-scratch opcode-to-text switch, grounded on spec.md section 6.2).
func Disassemble(word uint16, pc uint16) string {
	opcode := word >> 12
	dr := (word >> 9) & 0x7
	sr1 := (word >> 6) & 0x7
	sr2 := word & 0x7
	baseR := (word >> 6) & 0x7
	imm5 := signExtend(word&0x1F, 5)
	pcOffset9 := signExtend(word&0x1FF, 9)
	pcOffset11 := signExtend(word&0x7FF, 11)
	offset6 := signExtend(word&0x3F, 6)
	trapVect8 := word & 0xFF

	switch opcode {
	case opADD:
		if word&(1<<5) != 0 {
			return fmt.Sprintf("ADD R%d, R%d, #%d", dr, sr1, imm5)
		}
		return fmt.Sprintf("ADD R%d, R%d, R%d", dr, sr1, sr2)
	case opAND:
		if word&(1<<5) != 0 {
			return fmt.Sprintf("AND R%d, R%d, #%d", dr, sr1, imm5)
		}
		return fmt.Sprintf("AND R%d, R%d, R%d", dr, sr1, sr2)
	case opNOT:
		return fmt.Sprintf("NOT R%d, R%d", dr, sr1)
	case opBR:
		n, z, p := word&(1<<11) != 0, word&(1<<10) != 0, word&(1<<9) != 0
		mnemonic := "BR"
		if n || z || p {
			mnemonic = "BR"
			if n {
				mnemonic += "n"
			}
			if z {
				mnemonic += "z"
			}
			if p {
				mnemonic += "p"
			}
		}
		return fmt.Sprintf("%s x%04X", mnemonic, uint16(int32(pc)+1+int32(pcOffset9)))
	case opJMP:
		if baseR == 7 {
			return "RET"
		}
		return fmt.Sprintf("JMP R%d", baseR)
	case opJSR:
		if word&(1<<11) != 0 {
			return fmt.Sprintf("JSR x%04X", uint16(int32(pc)+1+int32(pcOffset11)))
		}
		return fmt.Sprintf("JSRR R%d", baseR)
	case opLD:
		return fmt.Sprintf("LD R%d, x%04X", dr, uint16(int32(pc)+1+int32(pcOffset9)))
	case opLDI:
		return fmt.Sprintf("LDI R%d, x%04X", dr, uint16(int32(pc)+1+int32(pcOffset9)))
	case opLDR:
		return fmt.Sprintf("LDR R%d, R%d, #%d", dr, baseR, offset6)
	case opLEA:
		return fmt.Sprintf("LEA R%d, x%04X", dr, uint16(int32(pc)+1+int32(pcOffset9)))
	case opST:
		return fmt.Sprintf("ST R%d, x%04X", dr, uint16(int32(pc)+1+int32(pcOffset9)))
	case opSTI:
		return fmt.Sprintf("STI R%d, x%04X", dr, uint16(int32(pc)+1+int32(pcOffset9)))
	case opSTR:
		return fmt.Sprintf("STR R%d, R%d, #%d", dr, baseR, offset6)
	case opRTI:
		return "RTI"
	case opTRAP:
		return fmt.Sprintf("TRAP x%02X", trapVect8)
	case opRES:
		return ".FILL (illegal opcode)"
	default:
		return fmt.Sprintf(".FILL x%04X", word)
	}
}
