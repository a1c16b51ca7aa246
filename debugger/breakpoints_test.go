package debugger_test

import (
	"testing"

	"github.com/go-lc3/lc3sim/debugger"
	"github.com/go-lc3/lc3sim/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointManager_Add_ArmsTheVMsAddressSet(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)

	bp := bm.Add(0x3005, false)
	assert.Equal(t, 1, bp.ID)
	assert.True(t, m.Breakpoints[0x3005])
}

func TestBreakpointManager_Add_SameAddressTwiceReusesID(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)

	first := bm.Add(0x3005, false)
	second := bm.Add(0x3005, true)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Temporary)
}

func TestBreakpointManager_Delete_RemovesFromBothManagerAndVM(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)
	bp := bm.Add(0x3005, false)

	require.NoError(t, bm.Delete(bp.ID))
	assert.Nil(t, bm.GetByID(bp.ID))
	assert.False(t, m.Breakpoints[0x3005])
}

func TestBreakpointManager_Delete_UnknownIDIsAnError(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)
	assert.Error(t, bm.Delete(999))
}

func TestBreakpointManager_DisableThenEnable_RoundTripsVMState(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)
	bp := bm.Add(0x3005, false)

	require.NoError(t, bm.Disable(bp.ID))
	assert.False(t, m.Breakpoints[0x3005])

	require.NoError(t, bm.Enable(bp.ID))
	assert.True(t, m.Breakpoints[0x3005])
}

func TestBreakpointManager_RecordHit_DeletesTemporaryBreakpoints(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)
	bp := bm.Add(0x3005, true)

	hit := bm.RecordHit(0x3005)
	require.NotNil(t, hit)
	assert.Equal(t, 1, hit.HitCount)
	assert.Nil(t, bm.GetByID(bp.ID))
	assert.False(t, m.Breakpoints[0x3005])
}

func TestBreakpointManager_RecordHit_KeepsPermanentBreakpointsArmed(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)
	bp := bm.Add(0x3005, false)

	bm.RecordHit(0x3005)
	bm.RecordHit(0x3005)
	got := bm.GetByID(bp.ID)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.HitCount)
}

func TestBreakpointManager_RecordHit_NonBreakpointAddressReturnsNil(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)
	assert.Nil(t, bm.RecordHit(0x9999))
}

func TestBreakpointManager_Clear_RemovesEverything(t *testing.T) {
	m := vm.NewVM()
	bm := debugger.NewBreakpointManager(m)
	bm.Add(0x3000, false)
	bm.Add(0x3001, false)

	bm.Clear()
	assert.Empty(t, bm.All())
	assert.Empty(t, m.Breakpoints)
}
