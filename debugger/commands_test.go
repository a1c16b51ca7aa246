package debugger_test

import (
	"os"
	"testing"

	"github.com/go-lc3/lc3sim/debugger"
	"github.com/go-lc3/lc3sim/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugger_CmdReset_Restart_LeavesMemoryAndBreakpointsIntact(t *testing.T) {
	m := vm.NewVM()
	m.LastOrigin = 0x3000
	m.CPU.PC = 0x3010
	m.Mem.WriteRaw(0x4000, 0xBEEF)
	d := debugger.NewDebugger(m)
	require.NoError(t, d.ExecuteCommand("break x4000"))

	require.NoError(t, d.ExecuteCommand("reset restart"))
	assert.Equal(t, uint16(0x3000), m.CPU.PC)
	assert.Equal(t, uint16(0xBEEF), m.Mem.ReadRaw(0x4000))
	assert.NotEmpty(t, d.Breakpoints.All())
}

func TestDebugger_CmdReset_Memory_ZeroesMemoryAndClearsBreakpoints(t *testing.T) {
	m := vm.NewVM()
	m.Mem.WriteRaw(0x4000, 0xBEEF)
	d := debugger.NewDebugger(m)
	require.NoError(t, d.ExecuteCommand("break x4000"))

	require.NoError(t, d.ExecuteCommand("reset memory"))
	assert.Equal(t, uint16(0), m.Mem.ReadRaw(0x4000))
	assert.Empty(t, d.Breakpoints.All())
}

func TestDebugger_CmdReset_Randomize_ReloadsBuiltinOS(t *testing.T) {
	m := vm.NewVM()
	d := debugger.NewDebugger(m)

	require.NoError(t, d.ExecuteCommand("reset randomize"))
	assert.NotEqual(t, uint16(0), m.Mem.ReadRaw(0x0025))
}

func TestDebugger_CmdReset_UnknownModeIsAnError(t *testing.T) {
	d := debugger.NewDebugger(vm.NewVM())
	assert.Error(t, d.ExecuteCommand("reset bogus"))
}

func TestDebugger_CmdReset_Reload_RestoresMutatedWordAndPC(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/prog.asm"
	require.NoError(t, os.WriteFile(path, []byte(".orig x3000\nADD R0, R0, #1\nCOUNTER .FILL #0\n.end\n"), 0o644))

	m := vm.NewVM()
	d := debugger.NewDebugger(m)
	require.NoError(t, d.ExecuteCommand("load "+path))

	// Simulate a program that mutates its own data during execution.
	m.Mem.WriteRaw(0x3001, 0x2A)
	m.CPU.PC = 0x3010
	m.CPU.PSR.Priority = 5

	require.NoError(t, d.ExecuteCommand("reset reload"))
	assert.Equal(t, uint16(0x3000), m.CPU.PC)
	assert.Equal(t, uint16(0), m.Mem.ReadRaw(0x3001))
	assert.Equal(t, uint8(0), m.CPU.PSR.Priority)
}

func TestDebugger_CmdReset_Reload_WithoutLoadedImageIsAnError(t *testing.T) {
	d := debugger.NewDebugger(vm.NewVM())
	assert.Error(t, d.ExecuteCommand("reset reload"))
}

func TestDebugger_CmdLoad_AssemblesAndLoadsASourceFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/prog.asm"
	require.NoError(t, os.WriteFile(path, []byte(".orig x3000\nADD R0, R0, #1\nHALT\n.end\n"), 0o644))

	m := vm.NewVM()
	d := debugger.NewDebugger(m)
	require.NoError(t, d.ExecuteCommand("load "+path))

	assert.Equal(t, uint16(0x3000), m.CPU.PC)
	assert.Contains(t, d.GetOutput(), "loaded")
}

func TestDebugger_CmdInfo_Registers(t *testing.T) {
	m := vm.NewVM()
	m.CPU.R[3] = 0x42
	d := debugger.NewDebugger(m)

	require.NoError(t, d.ExecuteCommand("info registers"))
	assert.Contains(t, d.GetOutput(), "R3 = x0042")
}

func TestDebugger_CmdExamine_MultipleWords(t *testing.T) {
	m := vm.NewVM()
	m.Mem.WriteRaw(0x3000, 0x1111)
	m.Mem.WriteRaw(0x3001, 0x2222)
	d := debugger.NewDebugger(m)

	require.NoError(t, d.ExecuteCommand("x x3000 2"))
	out := d.GetOutput()
	assert.Contains(t, out, "x3000: x1111")
	assert.Contains(t, out, "x3001: x2222")
}
