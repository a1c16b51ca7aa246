package debugger_test

import (
	"testing"

	"github.com/go-lc3/lc3sim/debugger"
	"github.com/go-lc3/lc3sim/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugger_ResolveAddress_Label(t *testing.T) {
	d := debugger.NewDebugger(vm.NewVM())
	d.LoadSymbols(map[string]uint16{"loop": 0x3005})

	addr, err := d.ResolveAddress("LOOP")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3005), addr)
}

func TestDebugger_ResolveAddress_HexAndDecimalAndImmediate(t *testing.T) {
	d := debugger.NewDebugger(vm.NewVM())

	hex, err := d.ResolveAddress("x3000")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3000), hex)

	dec, err := d.ResolveAddress("12288")
	require.NoError(t, err)
	assert.Equal(t, uint16(12288), dec)

	imm, err := d.ResolveAddress("#5")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), imm)
}

func TestDebugger_ResolveAddress_UnknownTokenIsAnError(t *testing.T) {
	d := debugger.NewDebugger(vm.NewVM())
	_, err := d.ResolveAddress("not_a_label_or_number")
	assert.Error(t, err)
}

func TestDebugger_ExecuteCommand_EmptyLineRepeatsLastCommand(t *testing.T) {
	m := vm.NewVM()
	m.CPU.PC = 0x3000
	m.Mem.WriteRaw(0x3000, 0x1021) // ADD R0,R0,#1
	m.Mem.WriteRaw(0x3001, 0x1021)
	d := debugger.NewDebugger(m)

	require.NoError(t, d.ExecuteCommand("step"))
	assert.Equal(t, uint16(0x3001), m.CPU.PC)

	require.NoError(t, d.ExecuteCommand(""))
	assert.Equal(t, uint16(0x3002), m.CPU.PC)
}

func TestDebugger_ExecuteCommand_UnknownCommandIsAnError(t *testing.T) {
	d := debugger.NewDebugger(vm.NewVM())
	assert.Error(t, d.ExecuteCommand("bogus"))
}

func TestDebugger_PrintAndSetRegisters(t *testing.T) {
	m := vm.NewVM()
	d := debugger.NewDebugger(m)

	require.NoError(t, d.ExecuteCommand("set R0 #42"))
	require.NoError(t, d.ExecuteCommand("print R0"))
	assert.Contains(t, d.GetOutput(), "R0 = x002A")
}

func TestDebugger_BreakThenRunStopsThere(t *testing.T) {
	m := vm.NewVM()
	m.CPU.PC = 0x3000
	m.Mem.WriteRaw(0x3000, 0x1021)
	m.Mem.WriteRaw(0x3001, 0x1021)
	d := debugger.NewDebugger(m)

	require.NoError(t, d.ExecuteCommand("break x3001"))
	require.NoError(t, d.ExecuteCommand("run"))
	assert.Equal(t, uint16(0x3001), m.CPU.PC)
	assert.Contains(t, d.GetOutput(), "breakpoint 1 at x3001")
}
