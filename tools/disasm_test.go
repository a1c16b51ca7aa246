package tools_test

import (
	"testing"

	"github.com/go-lc3/lc3sim/tools"
	"github.com/stretchr/testify/assert"
)

func TestDisassemble_ADDAndAND_ImmediateAndRegisterModes(t *testing.T) {
	assert.Equal(t, "ADD R1, R1, #1", tools.Disassemble(0x1261, 0x3000))
	assert.Equal(t, "ADD R0, R1, R2", tools.Disassemble(0x1042, 0x3000))
	assert.Equal(t, "AND R0, R0, #0", tools.Disassemble(0x5020, 0x3000))
}

func TestDisassemble_NOT(t *testing.T) {
	assert.Equal(t, "NOT R2, R3", tools.Disassemble(0x94FF, 0x3000))
}

func TestDisassemble_BR_ComputesTargetFromPCPlus1(t *testing.T) {
	// BRnzp #1 at x3000 -> target x3002
	assert.Equal(t, "BRnzp x3002", tools.Disassemble(0x0E01, 0x3000))
	// BRz #2 at x3000 -> target x3003
	assert.Equal(t, "BRz x3003", tools.Disassemble(0x0402, 0x3000))
}

func TestDisassemble_JMPAndRET(t *testing.T) {
	assert.Equal(t, "RET", tools.Disassemble(0xC1C0, 0x3000))
	assert.Equal(t, "JMP R3", tools.Disassemble(0xC0C0, 0x3000))
}

func TestDisassemble_JSRAndJSRR(t *testing.T) {
	assert.Equal(t, "JSR x3002", tools.Disassemble(0x4801, 0x3000))
	assert.Equal(t, "JSRR R3", tools.Disassemble(0x40C0, 0x3000))
}

func TestDisassemble_LoadStoreFamilies(t *testing.T) {
	assert.Equal(t, "LD R0, x3001", tools.Disassemble(0x2000, 0x3000))
	assert.Equal(t, "LDI R0, x3001", tools.Disassemble(0xA000, 0x3000))
	assert.Equal(t, "LDR R1, R2, #3", tools.Disassemble(0x6283, 0x3000))
	assert.Equal(t, "LEA R0, x3001", tools.Disassemble(0xE000, 0x3000))
	assert.Equal(t, "ST R0, x3001", tools.Disassemble(0x3000, 0x3000))
	assert.Equal(t, "STI R0, x3001", tools.Disassemble(0xB000, 0x3000))
	assert.Equal(t, "STR R1, R2, #3", tools.Disassemble(0x7283, 0x3000))
}

func TestDisassemble_RTIAndTRAPAndIllegal(t *testing.T) {
	assert.Equal(t, "RTI", tools.Disassemble(0x8000, 0x3000))
	assert.Equal(t, "TRAP x25", tools.Disassemble(0xF025, 0x3000))
	assert.Equal(t, ".FILL (illegal opcode)", tools.Disassemble(0xD000, 0x3000))
}
