package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-lc3/lc3sim/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionTrace_RecordInstruction_TracksRegisterChanges(t *testing.T) {
	m := vm.NewVM()
	m.CPU.PC = 0x3000

	trace := vm.NewExecutionTrace(nil)
	trace.Start()

	m.CPU.R[0] = 1
	trace.RecordInstruction(m, "ADD R0, R0, #1")
	entries := trace.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint16(1), entries[0].RegisterChanges["R0"])

	m.CPU.R[0] = 1 // unchanged
	trace.RecordInstruction(m, "NOP")
	assert.Empty(t, trace.GetEntries()[1].RegisterChanges)
}

func TestExecutionTrace_SetFilterRegisters_RestrictsTrackedRegisters(t *testing.T) {
	m := vm.NewVM()
	trace := vm.NewExecutionTrace(nil)
	trace.Start()
	trace.SetFilterRegisters([]string{"R0"})

	m.CPU.R[0] = 9
	m.CPU.R[1] = 9
	trace.RecordInstruction(m, "x")

	changes := trace.GetEntries()[0].RegisterChanges
	_, hasR0 := changes["R0"]
	_, hasR1 := changes["R1"]
	assert.True(t, hasR0)
	assert.False(t, hasR1)
}

func TestExecutionTrace_Flush_WritesEveryEntry(t *testing.T) {
	var buf bytes.Buffer
	trace := vm.NewExecutionTrace(&buf)
	trace.Start()

	m := vm.NewVM()
	trace.RecordInstruction(m, "ADD R0, R0, #1")
	trace.RecordInstruction(m, "AND R1, R1, #0")

	require.NoError(t, trace.Flush())
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.Contains(t, out, "ADD R0, R0, #1")
}

func TestExecutionTrace_LoadSymbols_AnnotatesAddress(t *testing.T) {
	var buf bytes.Buffer
	trace := vm.NewExecutionTrace(&buf)
	trace.LoadSymbols(map[string]uint16{"loop": 0x3005})
	trace.Start()

	m := vm.NewVM()
	m.CPU.PC = 0x3005
	trace.RecordInstruction(m, "BRnzp LOOP")
	require.NoError(t, trace.Flush())

	assert.Contains(t, buf.String(), "<loop>")
}

func TestExecutionTrace_MaxEntries_StopsRecording(t *testing.T) {
	trace := vm.NewExecutionTrace(nil)
	trace.MaxEntries = 2
	trace.Start()

	m := vm.NewVM()
	for i := 0; i < 5; i++ {
		trace.RecordInstruction(m, "x")
	}
	assert.Len(t, trace.GetEntries(), 2)
}

func TestExecutionTrace_Clear_DiscardsEntries(t *testing.T) {
	trace := vm.NewExecutionTrace(nil)
	trace.Start()
	trace.RecordInstruction(vm.NewVM(), "x")
	trace.Clear()
	assert.Empty(t, trace.GetEntries())
}
