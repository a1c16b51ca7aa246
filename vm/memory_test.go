package vm_test

import (
	"testing"

	"github.com/go-lc3/lc3sim/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct{ bytes []byte }

func (d *fakeDisplay) WriteByte(b byte) { d.bytes = append(d.bytes, b) }

type fakeKeyboard struct{ pending []byte }

func (k *fakeKeyboard) ReadByte() (byte, bool) {
	if len(k.pending) == 0 {
		return 0, false
	}
	b := k.pending[0]
	k.pending = k.pending[1:]
	return b, true
}

func TestMemory_DDRWrite_ReachesDisplaySink(t *testing.T) {
	m := vm.NewMemory()
	d := &fakeDisplay{}
	m.Display = d

	m.Write(vm.AddrDDR, uint16('A'))
	require.Len(t, d.bytes, 1)
	assert.Equal(t, byte('A'), d.bytes[0])
}

func TestMemory_DSRAlwaysReady(t *testing.T) {
	m := vm.NewMemory()
	assert.Equal(t, uint16(1<<15), m.Read(vm.AddrDSR))
}

func TestMemory_KeyboardPollLatchesAndKBDRClearsReadyBit(t *testing.T) {
	m := vm.NewMemory()
	m.Keyboard = &fakeKeyboard{pending: []byte{'x'}}

	kbsr := m.Read(vm.AddrKBSR)
	assert.NotEqual(t, uint16(0), kbsr&(1<<15))

	kbdr := m.Read(vm.AddrKBDR)
	assert.Equal(t, uint16('x'), kbdr)

	kbsr = m.Read(vm.AddrKBSR)
	assert.Equal(t, uint16(0), kbsr&(1<<15))
}

func TestMemory_KBSRWrite_OnlyInterruptEnableBitIsSoftwareWritable(t *testing.T) {
	m := vm.NewMemory()
	m.Write(vm.AddrKBSR, 0xFFFF)
	assert.True(t, m.KBSRInterruptEnabled())
	assert.False(t, m.Read(vm.AddrKBSR)&(1<<15) != 0)
}

func TestMemory_ClockEnabled(t *testing.T) {
	m := vm.NewMemory()
	assert.False(t, m.ClockEnabled())
	m.SetClockEnabled(true)
	assert.True(t, m.ClockEnabled())
	m.SetClockEnabled(false)
	assert.False(t, m.ClockEnabled())
}

func TestMemory_LatchKeyboardByte_SetsReadyBit(t *testing.T) {
	m := vm.NewMemory()
	m.LatchKeyboardByte('z')
	assert.NotEqual(t, uint16(0), m.Read(vm.AddrKBSR)&(1<<15))
	assert.Equal(t, uint16('z'), m.Read(vm.AddrKBDR))
}

func TestMemory_ReadRawWriteRaw_BypassMMIO(t *testing.T) {
	m := vm.NewMemory()
	m.WriteRaw(vm.AddrKBSR, 0x4242)
	assert.Equal(t, uint16(0x4242), m.ReadRaw(vm.AddrKBSR))
}

func TestMemory_Reset_ZeroesEverything(t *testing.T) {
	m := vm.NewMemory()
	m.WriteRaw(0x3000, 0xBEEF)
	m.LatchKeyboardByte('q')
	m.Reset()
	assert.Equal(t, uint16(0), m.ReadRaw(0x3000))
	assert.Equal(t, uint16(0), m.Read(vm.AddrKBSR)&(1<<15))
}
