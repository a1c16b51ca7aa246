package assembler

import "fmt"

// encodeResult is what encodeInstruction hands back to pass one: the partially (or
// fully) encoded word and an optional fixup for a label operand resolved in pass
// two. Errors are returned separately.
type encodeResult struct {
	word  uint16
	fixup *Fixup // nil if the instruction has no label operand
}

// encodeInstruction encodes one instruction per the bit layouts of spec.md section
// 6.2. offset (image offset, not absolute address) is where this word will live;
// it is needed to build a Fixup if an operand is a label. Returns an error for a
// malformed operand (non-register where a register is required, etc) — operand
// *count* mismatches are checked by the caller before this is invoked.
func encodeInstruction(mnemonic string, operands []string, offset int, lineNum int, raw string) (encodeResult, error) {
	if isBRMnemonic(mnemonic) {
		return encodeBR(mnemonic, operands, offset, lineNum, raw)
	}

	switch mnemonic {
	case "add", "and":
		return encodeADDAND(mnemonic, operands)
	case "not":
		return encodeNOT(operands)
	case "jmp":
		return encodeJMPBase(operands, opJMP)
	case "ret":
		return encodeResult{word: uint16(opJMP<<12) | (7 << 6)}, nil
	case "jsr":
		return encodeJSR(operands, offset, lineNum, raw)
	case "jsrr":
		return encodeJMPBase(operands, opJSR)
	case "ld", "ldi", "lea", "st", "sti":
		return encodePCOffset9(mnemonic, operands, offset, lineNum, raw)
	case "ldr", "str":
		return encodeBaseOffset6(mnemonic, operands)
	case "rti":
		return encodeResult{word: uint16(opRTI << 12)}, nil
	case "trap":
		return encodeTRAP(operands)
	case "getc":
		return trapAlias(TrapGETC), nil
	case "out":
		return trapAlias(TrapOUT), nil
	case "puts":
		return trapAlias(TrapPUTS), nil
	case "in":
		return trapAlias(TrapIN), nil
	case "putsp":
		return trapAlias(TrapPUTSP), nil
	case "halt":
		return trapAlias(TrapHALT), nil
	}
	return encodeResult{}, fmt.Errorf("unknown mnemonic: %s", mnemonic)
}

func trapAlias(vector uint16) encodeResult {
	return encodeResult{word: uint16(opTRAP<<12) | vector}
}

func encodeADDAND(mnemonic string, ops []string) (encodeResult, error) {
	dr, ok := registerNumber(ops[0])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[0])
	}
	sr1, ok := registerNumber(ops[1])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[1])
	}
	op := uint16(opADD)
	if mnemonic == "and" {
		op = opAND
	}
	word := op<<12 | uint16(dr)<<9 | uint16(sr1)<<6

	if sr2, ok := registerNumber(ops[2]); ok {
		word |= uint16(sr2)
	} else {
		imm, err := parseImmediate(ops[2], true, 5)
		if err != nil {
			return encodeResult{}, err
		}
		word |= 1 << 5
		word |= uint16(imm) & 0x1F
	}
	return encodeResult{word: word}, nil
}

func encodeNOT(ops []string) (encodeResult, error) {
	dr, ok := registerNumber(ops[0])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[0])
	}
	sr, ok := registerNumber(ops[1])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[1])
	}
	word := uint16(opNOT)<<12 | uint16(dr)<<9 | uint16(sr)<<6 | 0x3F
	return encodeResult{word: word}, nil
}

func encodeJMPBase(ops []string, opcode uint16) (encodeResult, error) {
	base, ok := registerNumber(ops[0])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[0])
	}
	word := opcode<<12 | uint16(base)<<6
	return encodeResult{word: word}, nil
}

func encodeBR(mnemonic string, ops []string, offset int, lineNum int, raw string) (encodeResult, error) {
	bits := brVariants[mnemonic]
	word := uint16(opBR) << 12
	if bits[0] {
		word |= 1 << 11
	}
	if bits[1] {
		word |= 1 << 10
	}
	if bits[2] {
		word |= 1 << 9
	}
	return encodeWithOffset9(word, ops[0], offset, lineNum, raw)
}

func encodeJSR(ops []string, offset int, lineNum int, raw string) (encodeResult, error) {
	word := uint16(opJSR)<<12 | 1<<11
	res, err := encodeWithOffset(word, ops[0], offset, lineNum, raw, 11, FixupInstrOffset11)
	return res, err
}

func encodePCOffset9(mnemonic string, ops []string, offset int, lineNum int, raw string) (encodeResult, error) {
	var opcode uint16
	switch mnemonic {
	case "ld":
		opcode = opLD
	case "ldi":
		opcode = opLDI
	case "lea":
		opcode = opLEA
	case "st":
		opcode = opST
	case "sti":
		opcode = opSTI
	}
	dr, ok := registerNumber(ops[0])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[0])
	}
	word := opcode<<12 | uint16(dr)<<9
	return encodeWithOffset9(word, ops[1], offset, lineNum, raw)
}

func encodeWithOffset9(word uint16, labelOrImm string, offset int, lineNum int, raw string) (encodeResult, error) {
	return encodeWithOffset(word, labelOrImm, offset, lineNum, raw, 9, FixupInstrOffset9)
}

// encodeWithOffset handles a PC-relative operand that may be an immediate literal
// or a label. A label operand encodes as zero and pushes a Fixup so pass two can
// OR in the resolved offset (spec.md section 4.1.2 step 4).
func encodeWithOffset(word uint16, tok string, offset int, lineNum int, raw string, width uint, kind FixupKind) (encodeResult, error) {
	if isImmediateToken(tok) {
		imm, err := parseImmediate(tok, true, width)
		if err != nil {
			return encodeResult{}, err
		}
		return encodeResult{word: word | (uint16(imm) & mask(width))}, nil
	}
	fx := &Fixup{Kind: kind, Label: tok, Offset: offset, Count: 1, Line: lineNum, Source: raw}
	return encodeResult{word: word, fixup: fx}, nil
}

func encodeBaseOffset6(mnemonic string, ops []string) (encodeResult, error) {
	opcode := uint16(opLDR)
	if mnemonic == "str" {
		opcode = opSTR
	}
	dr, ok := registerNumber(ops[0])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[0])
	}
	base, ok := registerNumber(ops[1])
	if !ok {
		return encodeResult{}, fmt.Errorf("expected register, got %q", ops[1])
	}
	imm, err := parseImmediate(ops[2], true, 6)
	if err != nil {
		return encodeResult{}, err
	}
	word := opcode<<12 | uint16(dr)<<9 | uint16(base)<<6 | (uint16(imm) & 0x3F)
	return encodeResult{word: word}, nil
}

func encodeTRAP(ops []string) (encodeResult, error) {
	imm, err := parseImmediate(ops[0], false, 8)
	if err != nil {
		return encodeResult{}, err
	}
	return encodeResult{word: uint16(opTRAP)<<12 | uint16(imm)}, nil
}

func mask(width uint) uint16 {
	return uint16(1<<width) - 1
}
